package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/MarkoPoloResearchLab/farmstand/pkg/directory"
	"go.uber.org/zap"
)

type bulkCall struct {
	defaultData  string
	destinations []Destination
}

type stubSender struct {
	calls    []bulkCall
	sendErrs map[int]error
	failing  map[string]bool
}

func (stub *stubSender) SendBulk(_ context.Context, defaultData string, destinations []Destination) ([]SendResult, error) {
	callIndex := len(stub.calls)
	stub.calls = append(stub.calls, bulkCall{defaultData: defaultData, destinations: destinations})
	if err := stub.sendErrs[callIndex]; err != nil {
		return nil, err
	}
	results := make([]SendResult, 0, len(destinations))
	for _, destination := range destinations {
		results = append(results, SendResult{Email: destination.Email, OK: !stub.failing[destination.Email]})
	}
	return results, nil
}

func sampleUsers(count int) []directory.User {
	users := make([]directory.User, 0, count)
	for userIndex := 0; userIndex < count; userIndex++ {
		users = append(users, directory.User{
			Email:    fmt.Sprintf("member%d@example.com", userIndex),
			Location: "Wallingford",
		})
	}
	return users
}

var sampleLocations = []directory.Location{
	{Name: "Wallingford", PickupInstructions: "On the porch in the blue cooler."},
	{Name: "Lake City", PickupInstructions: "Side gate, shelf by the garage."},
}

func TestSendFillsInPerLocationInstructions(test *testing.T) {
	test.Parallel()
	sender := &stubSender{}
	confirmations := NewConfirmations(sender, zap.NewNop())

	users := []directory.User{
		{Email: "ashley@friskygirlfarm.com", Location: "Wallingford"},
		{Email: "ellen@friskygirlfarm.com", Location: "Lake City"},
		{Email: "herb@friskygirlfarm.com", Location: "Somewhere New"},
	}
	failedSends, err := confirmations.Send(context.Background(), users, sampleLocations)
	if err != nil {
		test.Fatalf("Send: %v", err)
	}
	if len(failedSends) != 0 {
		test.Fatalf("expected no failed sends, got %v", failedSends)
	}
	if len(sender.calls) != 1 {
		test.Fatalf("expected one bulk call, got %d", len(sender.calls))
	}

	destinations := sender.calls[0].destinations
	if len(destinations) != 3 {
		test.Fatalf("expected three destinations, got %d", len(destinations))
	}
	if !strings.Contains(destinations[0].TemplateData, "blue cooler") {
		test.Fatalf("wallingford instructions missing: %s", destinations[0].TemplateData)
	}
	if !strings.Contains(destinations[1].TemplateData, "garage") {
		test.Fatalf("lake city instructions missing: %s", destinations[1].TemplateData)
	}
	// Unknown locations fall back to the contact line.
	if !strings.Contains(destinations[2].TemplateData, "contact the farm") {
		test.Fatalf("fallback instructions missing: %s", destinations[2].TemplateData)
	}
	if !strings.Contains(sender.calls[0].defaultData, "contact the farm") {
		test.Fatalf("default data must carry the fallback: %s", sender.calls[0].defaultData)
	}
}

func TestSendChunksRecipientsAtTheBulkLimit(test *testing.T) {
	test.Parallel()
	sender := &stubSender{}
	confirmations := NewConfirmations(sender, zap.NewNop())

	failedSends, err := confirmations.Send(context.Background(), sampleUsers(120), sampleLocations)
	if err != nil {
		test.Fatalf("Send: %v", err)
	}
	if len(failedSends) != 0 {
		test.Fatalf("expected no failed sends, got %v", failedSends)
	}
	if len(sender.calls) != 3 {
		test.Fatalf("expected three chunks, got %d", len(sender.calls))
	}
	chunkSizes := []int{len(sender.calls[0].destinations), len(sender.calls[1].destinations), len(sender.calls[2].destinations)}
	if chunkSizes[0] != 50 || chunkSizes[1] != 50 || chunkSizes[2] != 20 {
		test.Fatalf("unexpected chunk sizes: %v", chunkSizes)
	}
}

func TestSendCollectsPerRecipientFailures(test *testing.T) {
	test.Parallel()
	sender := &stubSender{failing: map[string]bool{"member1@example.com": true}}
	confirmations := NewConfirmations(sender, zap.NewNop())

	failedSends, err := confirmations.Send(context.Background(), sampleUsers(3), sampleLocations)
	if err != nil {
		test.Fatalf("Send: %v", err)
	}
	if len(failedSends) != 1 || failedSends[0] != "member1@example.com" {
		test.Fatalf("expected member1 to fail, got %v", failedSends)
	}
}

func TestSendMarksWholeChunkFailedOnTransportFault(test *testing.T) {
	test.Parallel()
	sender := &stubSender{sendErrs: map[int]error{0: errors.New("ses unavailable")}}
	confirmations := NewConfirmations(sender, zap.NewNop())

	failedSends, err := confirmations.Send(context.Background(), sampleUsers(60), sampleLocations)
	if err != nil {
		test.Fatalf("partial failure must not fail the operation: %v", err)
	}
	if len(failedSends) != 50 {
		test.Fatalf("expected the first chunk of 50 to fail, got %d", len(failedSends))
	}
	if len(sender.calls) != 2 {
		test.Fatalf("the second chunk must still send, got %d calls", len(sender.calls))
	}
}

func TestSendWithNoUsersSendsNothing(test *testing.T) {
	test.Parallel()
	sender := &stubSender{}
	confirmations := NewConfirmations(sender, zap.NewNop())

	failedSends, err := confirmations.Send(context.Background(), nil, sampleLocations)
	if err != nil {
		test.Fatalf("Send: %v", err)
	}
	if len(failedSends) != 0 || len(sender.calls) != 0 {
		test.Fatalf("expected no sends, got %d calls", len(sender.calls))
	}
}
