package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/checkout"
	"supermarket/logging"
	"supermarket/payment"
	"supermarket/session"
)

// PaymentController bridges the two external providers to the checkout
// service. Wallet payments confirm synchronously on capture; QR payments
// confirm through the reconciliation watcher feeding the SSE stream.
type PaymentController struct {
	Wallet   *payment.WalletClient
	QR       *payment.QRClient
	Checkout *checkout.Service
	Locker   checkout.Locker

	// WatchInterval overrides the watcher's poll interval; zero keeps the
	// provider default.
	WatchInterval time.Duration
}

func NewPaymentController(wallet *payment.WalletClient, qr *payment.QRClient, svc *checkout.Service, locker checkout.Locker) *PaymentController {
	return &PaymentController{Wallet: wallet, QR: qr, Checkout: svc, Locker: locker}
}

// CreateWalletCheckout registers the session cart's total with the wallet
// provider and returns the external order id for browser approval.
func (ctl *PaymentController) CreateWalletCheckout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sess := session.FromContext(c)
	var total float64
	empty := false
	_ = sess.Do(func() error {
		sess.UserID = userID
		total = sess.Cart.Total()
		empty = sess.Cart.Len() == 0
		return nil
	})
	if empty {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart empty"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	externalID, err := ctl.Wallet.CreateCheckout(ctx, total)
	if err != nil {
		logging.From(c).Error("wallet checkout create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not create payment order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": externalID})
}

// CaptureWalletCheckout captures an approved wallet payment and records the
// order. A capture that succeeds but fails to record locally is reported
// distinctly: funds are taken, so a generic decline message would mislead.
func (ctl *PaymentController) CaptureWalletCheckout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		OrderID string `json:"orderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing orderId"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	status, err := ctl.Wallet.CaptureCheckout(ctx, body.OrderID)
	if err != nil {
		logging.From(c).Error("wallet capture failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not capture payment"})
		return
	}
	if status != payment.StatusCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Payment not completed"})
		return
	}

	sess := session.FromContext(c)
	receipt, err := ctl.recordOrder(ctx, sess, userID)
	if err != nil {
		logging.From(c).Error("order not recorded after capture", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"code":    "ORDER_NOT_RECORDED",
			"message": "Payment captured but your order could not be recorded. Please contact support.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orderId": receipt.OrderID.Hex()})
}

// RequestQRPayment starts a QR transaction for the session cart's total.
func (ctl *PaymentController) RequestQRPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sess := session.FromContext(c)
	var total float64
	empty := false
	_ = sess.Do(func() error {
		sess.UserID = userID
		total = sess.Cart.Total()
		empty = sess.Cart.Len() == 0
		return nil
	})
	if empty {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart empty"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	qr, err := ctl.QR.RequestQRTransaction(ctx, total)
	if err != nil {
		logging.From(c).Error("qr request failed", "error", err)
		resp := gin.H{"error": "Failed to generate QR code"}
		if qr != nil {
			resp["responseCode"] = qr.ResponseCode
			resp["errorMsg"] = qr.ErrorMessage
		}
		c.JSON(http.StatusBadGateway, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":           total,
		"txnRetrievalRef": qr.TxnRetrievalRef,
		"qrCodeUrl":       "data:image/png;base64," + qr.QRCode,
		"networkStatus":   qr.NetworkStatus,
		"timer":           300,
	})
}

// StreamQRStatus is the server-push status stream for one QR transaction.
// It forwards raw provider payloads while pending and, on SUCCEEDED, runs
// the checkout orchestrator exactly once before closing the stream.
func (ctl *PaymentController) StreamQRStatus(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing retrieval reference"})
		return
	}
	sess := session.FromContext(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	watcher := &payment.Watcher{Querier: ctl.QR, Interval: ctl.WatchInterval}
	events := watcher.Watch(c.Request.Context(), ref)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		switch ev.State {
		case payment.StatePending:
			c.SSEvent("message", ev.Status)
			return true
		case payment.StateSucceeded:
			ctl.settleQRSuccess(c, sess)
			return false
		case payment.StateTimedOut:
			c.SSEvent("message", gin.H{"fail": true, "error": "Timeout"})
			return false
		default: // FAILED
			resp := gin.H{"fail": true}
			if ev.Err != nil {
				resp["error"] = ev.Err.Error()
			} else if ev.Status != nil {
				resp["responseCode"] = ev.Status.ResponseCode
				resp["errorMsg"] = ev.Status.ErrorMessage
			}
			c.SSEvent("message", resp)
			return false
		}
	})
}

// settleQRSuccess records the order after a confirmed QR payment. The cart
// may have expired with the session during a slow poll; that still surfaces
// as a reconciliation failure rather than a silent generic success.
func (ctl *PaymentController) settleQRSuccess(c *gin.Context, sess *session.Session) {
	// The event stream itself is unauthenticated; identity is pinned to the
	// session when the QR transaction is requested. No pinned user means the
	// payment cannot be attributed to an account, so it must not become an
	// anonymous order.
	if sess.UserID.IsZero() {
		logging.From(c).Error("order not recorded after qr payment", "error", "no user pinned to session")
		c.SSEvent("message", gin.H{
			"fail":    true,
			"code":    "ORDER_NOT_RECORDED",
			"message": "Payment received but your order could not be recorded. Please contact support.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	receipt, err := ctl.recordOrder(ctx, sess, sess.UserID)
	if err != nil {
		logging.From(c).Error("order not recorded after qr payment", "error", err)
		c.SSEvent("message", gin.H{
			"fail":    true,
			"code":    "ORDER_NOT_RECORDED",
			"message": "Payment received but your order could not be recorded. Please contact support.",
		})
		return
	}
	c.SSEvent("message", gin.H{"success": true, "orderId": receipt.OrderID.Hex()})
}

var errCheckoutInFlight = errors.New("checkout already in progress for session")

// recordOrder invokes the checkout orchestrator exactly once under the
// session's single-flight lock and clears the cart only on success.
func (ctl *PaymentController) recordOrder(ctx context.Context, sess *session.Session, userID primitive.ObjectID) (*checkout.Receipt, error) {
	locked, err := ctl.Locker.TryLock(ctx, "checkout", sess.Token)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, errCheckoutInFlight
	}
	defer func() {
		_ = ctl.Locker.Unlock(ctx, "checkout", sess.Token)
	}()

	var receipt *checkout.Receipt
	err = sess.Do(func() error {
		lines := sess.Cart.Lines()
		r, err := ctl.Checkout.CreateOrder(ctx, userID, lines)
		if err != nil {
			return err
		}
		receipt = r
		sess.Cart.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}
