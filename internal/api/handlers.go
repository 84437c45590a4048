package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/MarkoPoloResearchLab/farmstand/internal/mailer"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/directory"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/orders"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	codeUnknownUser          = "unknownUser"
	codeOrdersNotOpen        = "ordersNotOpen"
	codeNegativeQuantity     = "negativeQuantity"
	codeProductNotFound      = "productNotFound"
	codeQuantityNotAvailable = "quantityNotAvailable"
	codeBadInput             = "badInput"
	codeInternalError        = "internalError"
)

type httpHandler struct {
	logger        *zap.Logger
	orders        *orders.Service
	directory     *directory.Service
	confirmations *mailer.Confirmations
	serializer    *identitySerializer
}

type productPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"imageUrl"`
	Price     float64 `json:"price"`
	Available int     `json:"available"`
	Ordered   int     `json:"ordered"`
}

type productsResponse struct {
	Products []productPayload `json:"products"`
}

type pastOrderProductPayload struct {
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl"`
	Price    float64 `json:"price"`
	Ordered  int     `json:"ordered"`
}

type userPayload struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Balance  float64 `json:"balance"`
}

type pastOrderPayload struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
}

type setOrderedRequest struct {
	Ordered *int `json:"ordered"`
}

type confirmationEmailsRequest struct {
	SheetID *int64 `json:"sheetId"`
}

// handleGetUser resolves one member profile.
func (handler *httpHandler) handleGetUser(ctx *gin.Context) {
	user, err := handler.directory.GetUser(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, directory.ErrUnknownUser) {
			ctx.JSON(http.StatusNotFound, gin.H{"code": codeUnknownUser})
			return
		}
		handler.serverError(ctx, "get user", err)
		return
	}
	ctx.JSON(http.StatusOK, userPayload{
		Email:    user.Email,
		Name:     user.Name,
		Location: user.Location,
		Balance:  user.Balance.InexactFloat64(),
	})
}

// handleGetProducts returns the current week's view for the identity.
func (handler *httpHandler) handleGetProducts(ctx *gin.Context) {
	identity, ok := handler.requireIdentity(ctx)
	if !ok {
		return
	}
	view, err := handler.orders.GetForUser(ctx.Request.Context(), orders.CurrentLedger(), identity)
	if err != nil {
		handler.writeOrdersError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, serializeProducts(view))
}

// handleSetOrdered applies one quantity change, serialized per identity.
func (handler *httpHandler) handleSetOrdered(ctx *gin.Context) {
	identity, ok := handler.requireIdentity(ctx)
	if !ok {
		return
	}

	// The identity must exist in the directory before any mutation.
	if _, err := handler.directory.GetUser(ctx.Request.Context(), identity.String()); err != nil {
		if errors.Is(err, directory.ErrUnknownUser) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"code": codeUnknownUser})
			return
		}
		handler.serverError(ctx, "verify user", err)
		return
	}

	productID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || productID < 1 {
		ctx.JSON(http.StatusNotFound, gin.H{"code": codeProductNotFound})
		return
	}

	var request setOrderedRequest
	if err := ctx.ShouldBindJSON(&request); err != nil || request.Ordered == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    codeBadInput,
			"message": "Must specify 'ordered' as a non-negative number",
		})
		return
	}
	if *request.Ordered < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    codeBadInput,
			"message": "Must specify 'ordered' as a non-negative number",
		})
		return
	}

	release := handler.serializer.Acquire(identity.String())
	defer release()

	view, err := handler.orders.SetOrdered(ctx.Request.Context(), identity, orders.ProductID(productID), *request.Ordered)
	if err != nil {
		handler.writeOrdersError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, serializeProducts(view))
}

// handleListOrders returns the identity's past orders, newest first.
func (handler *httpHandler) handleListOrders(ctx *gin.Context) {
	identity, ok := handler.requireIdentity(ctx)
	if !ok {
		return
	}
	pastOrders, err := handler.orders.ListPastOrders(ctx.Request.Context(), identity)
	if err != nil {
		handler.writeOrdersError(ctx, err)
		return
	}
	sort.Slice(pastOrders, func(left, right int) bool {
		return pastOrders[left].Date.After(pastOrders[right].Date)
	})
	payloads := make([]pastOrderPayload, 0, len(pastOrders))
	for _, pastOrder := range pastOrders {
		payloads = append(payloads, pastOrderPayload{
			ID:   pastOrder.ID,
			Date: pastOrder.Date.UTC().Format(time.RFC3339),
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"orders": payloads})
}

// handleGetOrder returns the identity's line items from one closed week.
func (handler *httpHandler) handleGetOrder(ctx *gin.Context) {
	identity, ok := handler.requireIdentity(ctx)
	if !ok {
		return
	}
	ledgerID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	ref, err := handler.orders.HistoricalRef(ctx.Request.Context(), ledgerID)
	if err != nil {
		if errors.Is(err, orders.ErrLedgerNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		handler.serverError(ctx, "resolve ledger", err)
		return
	}
	view, err := handler.orders.GetForUser(ctx.Request.Context(), ref, identity)
	if err != nil {
		handler.writeOrdersError(ctx, err)
		return
	}

	payloads := make([]pastOrderProductPayload, 0, len(view.Products))
	for _, productID := range sortedProductIDs(view) {
		product := view.Products[productID]
		payloads = append(payloads, pastOrderProductPayload{
			Name:     product.Name,
			ImageURL: product.ImageURL,
			Price:    product.Price.InexactFloat64(),
			Ordered:  product.Ordered,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"products": payloads})
}

// handleConfirmationEmails resolves a closed ledger, collects its
// participants, and sends them confirmation emails.
func (handler *httpHandler) handleConfirmationEmails(ctx *gin.Context) {
	if handler.confirmations == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email delivery is not configured"})
		return
	}
	var request confirmationEmailsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil || request.SheetID == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No sheet specified"})
		return
	}

	ref, err := handler.orders.HistoricalRef(ctx.Request.Context(), *request.SheetID)
	if err != nil {
		if errors.Is(err, orders.ErrLedgerNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Orders sheet not found"})
			return
		}
		handler.serverError(ctx, "resolve ledger", err)
		return
	}

	participants, err := handler.orders.UsersWithOrders(ctx.Request.Context(), ref)
	if err != nil {
		handler.serverError(ctx, "list participants", err)
		return
	}
	users, err := handler.directory.GetUsers(ctx.Request.Context(), participants)
	if err != nil {
		handler.serverError(ctx, "lookup participants", err)
		return
	}
	locations, err := handler.directory.Locations(ctx.Request.Context())
	if err != nil {
		handler.serverError(ctx, "lookup locations", err)
		return
	}

	failedSends, err := handler.confirmations.Send(ctx.Request.Context(), users, locations)
	if err != nil {
		handler.serverError(ctx, "send confirmations", err)
		return
	}
	if len(failedSends) > 0 {
		handler.logger.Error("confirmation sends failed", zap.Strings("emails", failedSends))
	}
	ctx.JSON(http.StatusOK, gin.H{"failedSends": failedSends})
}

func (handler *httpHandler) requireIdentity(ctx *gin.Context) (orders.Identity, bool) {
	identity, err := orders.NewIdentity(ctx.Query("userId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    codeBadInput,
			"message": "Must specify 'userId'",
		})
		return orders.Identity{}, false
	}
	return identity, true
}

// writeOrdersError maps the core's error taxonomy to response codes 1:1;
// anything unrecognized is a server fault.
func (handler *httpHandler) writeOrdersError(ctx *gin.Context, err error) {
	var quantityError orders.QuantityNotAvailableError
	switch {
	case errors.Is(err, orders.ErrOrdersNotOpen):
		ctx.JSON(http.StatusNotFound, gin.H{"code": codeOrdersNotOpen})
	case errors.Is(err, orders.ErrNegativeQuantity):
		ctx.JSON(http.StatusBadRequest, gin.H{"code": codeNegativeQuantity})
	case errors.Is(err, orders.ErrProductNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"code": codeProductNotFound})
	case errors.As(err, &quantityError):
		ctx.JSON(http.StatusConflict, gin.H{
			"code":  codeQuantityNotAvailable,
			"extra": gin.H{"available": quantityError.Available},
		})
	case errors.Is(err, orders.ErrLedgerNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	default:
		handler.serverError(ctx, "orders", err)
	}
}

func (handler *httpHandler) serverError(ctx *gin.Context, operation string, err error) {
	handler.logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
	ctx.JSON(http.StatusInternalServerError, gin.H{"code": codeInternalError})
}

func serializeProducts(view orders.View) productsResponse {
	payloads := make([]productPayload, 0, len(view.Products))
	for _, productID := range sortedProductIDs(view) {
		product := view.Products[productID]
		payloads = append(payloads, productPayload{
			ID:        strconv.Itoa(int(productID)),
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			Price:     product.Price.InexactFloat64(),
			Available: product.Available,
			Ordered:   product.Ordered,
		})
	}
	return productsResponse{Products: payloads}
}

func sortedProductIDs(view orders.View) []orders.ProductID {
	productIDs := make([]orders.ProductID, 0, len(view.Products))
	for productID := range view.Products {
		productIDs = append(productIDs, productID)
	}
	sort.Slice(productIDs, func(left, right int) bool {
		return productIDs[left] < productIDs[right]
	})
	return productIDs
}
