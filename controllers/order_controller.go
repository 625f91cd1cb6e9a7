package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"supermarket/database"
)

func GetOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orders, err := database.Ledger.OrdersByUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": orders})
}

// GetOrderDetails returns one order with its line items. Product names are
// resolved best-effort; a product deleted after purchase keeps its snapshot
// price but loses its name.
func GetOrderDetails(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := database.Ledger.OrderByID(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	items, err := database.Ledger.ItemsByOrder(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading order items"})
		return
	}

	var resp []gin.H
	for _, item := range items {
		name := ""
		if product, err := database.Inventory.GetByID(ctx, item.ProductID); err == nil {
			name = product.Name
		}
		resp = append(resp, gin.H{
			"productId": item.ProductID.Hex(),
			"name":      name,
			"quantity":  item.Quantity,
			"price":     item.Price,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Fetch success",
		"order":   order,
		"items":   resp,
	})
}
