package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MarkoPoloResearchLab/farmstand/internal/store/gridstore"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/directory"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/orders"
)

func TestRunProducesAServableStore(test *testing.T) {
	test.Parallel()
	path := filepath.Join(test.TempDir(), "farm.db")
	if err := Run(context.Background(), path); err != nil {
		test.Fatalf("Run: %v", err)
	}

	store, err := gridstore.Open(path)
	if err != nil {
		test.Fatalf("reopen store: %v", err)
	}

	ordersService, err := orders.NewService(store, store, store, openLedgerTitle)
	if err != nil {
		test.Fatalf("orders.NewService: %v", err)
	}
	directoryService, err := directory.NewService(store, usersSheetTitle, locationsTitle)
	if err != nil {
		test.Fatalf("directory.NewService: %v", err)
	}

	identity, err := orders.NewIdentity("ashley@friskygirlfarm.com")
	if err != nil {
		test.Fatalf("NewIdentity: %v", err)
	}
	view, err := ordersService.GetForUser(context.Background(), orders.CurrentLedger(), identity)
	if err != nil {
		test.Fatalf("GetForUser: %v", err)
	}
	if len(view.Products) != 3 {
		test.Fatalf("expected three products, got %+v", view.Products)
	}
	lettuce := view.Products[orders.ProductID(1)]
	if lettuce.Ordered != 1 || lettuce.Available != 4 {
		test.Fatalf("unexpected lettuce state: %+v", lettuce)
	}

	user, err := directoryService.GetUser(context.Background(), identity.String())
	if err != nil {
		test.Fatalf("GetUser: %v", err)
	}
	if user.Location != "Wallingford" {
		test.Fatalf("unexpected user: %+v", user)
	}

	pastOrders, err := ordersService.ListPastOrders(context.Background(), identity)
	if err != nil {
		test.Fatalf("ListPastOrders: %v", err)
	}
	if len(pastOrders) != 1 || pastOrders[0].ID != pastLedgerID {
		test.Fatalf("expected the closed week, got %+v", pastOrders)
	}
}
