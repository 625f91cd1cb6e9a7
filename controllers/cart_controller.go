package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/cart"
	"supermarket/checkout"
	"supermarket/logging"
	"supermarket/models"
	"supermarket/session"
)

// CartController serves the session-held cart. Stock checks here are
// advisory; checkout runs the authoritative conditional decrement.
type CartController struct {
	Inventory checkout.Inventory
	Checkout  *checkout.Service
	Locker    checkout.Locker
}

func NewCartController(inv checkout.Inventory, svc *checkout.Service, locker checkout.Locker) *CartController {
	return &CartController{Inventory: inv, Checkout: svc, Locker: locker}
}

func (ctl *CartController) View(c *gin.Context) {
	sess := session.FromContext(c)
	_ = sess.Do(func() error {
		c.JSON(http.StatusOK, gin.H{
			"message": "Fetch success",
			"data":    sess.Cart.Lines(),
			"total":   sess.Cart.Total(),
		})
		return nil
	})
}

func (ctl *CartController) Add(c *gin.Context) {
	var body struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}
	productID, err := primitive.ObjectIDFromHex(body.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid productId"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	sess := session.FromContext(c)
	var lines []models.CartLine
	err = sess.Do(func() error {
		if err := sess.Cart.Add(ctx, ctl.Inventory, productID, body.Quantity); err != nil {
			return err
		}
		lines = sess.Cart.Lines()
		return nil
	})
	if err != nil {
		writeCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Added to cart", "data": lines})
}

func (ctl *CartController) Update(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid productId"})
		return
	}
	var body struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || *body.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	sess := session.FromContext(c)
	var lines []models.CartLine
	err = sess.Do(func() error {
		if err := sess.Cart.Update(ctx, ctl.Inventory, productID, *body.Quantity); err != nil {
			return err
		}
		lines = sess.Cart.Lines()
		return nil
	})
	if err != nil {
		writeCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "data": lines})
}

func (ctl *CartController) Remove(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid productId"})
		return
	}

	sess := session.FromContext(c)
	removed := false
	_ = sess.Do(func() error {
		removed = sess.Cart.Remove(productID)
		return nil
	})
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found in cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Removed from cart"})
}

func (ctl *CartController) Clear(c *gin.Context) {
	sess := session.FromContext(c)
	_ = sess.Do(func() error {
		sess.Cart.Clear()
		return nil
	})
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// CheckoutCart converts the session cart into an order. A single-flight lock
// on the session token keeps a duplicated submission from creating a second
// order; the cart is cleared under the session lock, synchronously with
// order creation.
func (ctl *CartController) CheckoutCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	sess := session.FromContext(c)
	locked, err := ctl.Locker.TryLock(ctx, "checkout", sess.Token)
	if err != nil {
		logging.From(c).Error("checkout lock failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not complete checkout"})
		return
	}
	if !locked {
		c.JSON(http.StatusConflict, gin.H{"error": "Checkout already in progress"})
		return
	}
	defer func() {
		_ = ctl.Locker.Unlock(ctx, "checkout", sess.Token)
	}()

	var receipt *checkout.Receipt
	err = sess.Do(func() error {
		r, err := ctl.Checkout.CreateOrder(ctx, userID, sess.Cart.Lines())
		if err != nil {
			return err
		}
		receipt = r
		sess.Cart.Clear()
		return nil
	})
	if err != nil {
		writeCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout completed successfully",
		"order": gin.H{
			"id":    receipt.OrderID.Hex(),
			"total": receipt.Total,
		},
	})
}

func writeCartError(c *gin.Context, err error) {
	var stockErr *checkout.StockError
	var productErr *cart.ProductError
	switch {
	case errors.As(err, &productErr):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{"error": "Quantity exceeds available stock"})
	case errors.Is(err, cart.ErrNotInCart):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found in cart"})
	case errors.Is(err, checkout.ErrBadQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	var stockErr *checkout.StockError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
	case errors.Is(err, checkout.ErrBadQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("Insufficient stock for product %s", stockErr.ProductID.Hex()),
		})
	default:
		logging.From(c).Error("checkout failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not complete checkout"})
	}
}
