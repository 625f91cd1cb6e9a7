package controllers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"supermarket/database"
	"supermarket/logging"
	"supermarket/models"
)

const imageUploadDir = "public/images"

// CreateProduct accepts multipart form data so an image can ride along.
func CreateProduct(c *gin.Context) {
	price, err := strconv.ParseFloat(c.PostForm("price"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
		return
	}
	quantity, err := strconv.Atoi(c.DefaultPostForm("quantity", "0"))
	if err != nil || quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}
	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}
	discount, _ := strconv.ParseFloat(c.DefaultPostForm("discountPercentage", "0"), 64)
	category := c.DefaultPostForm("category", "General")

	var imageName string
	if file, err := c.FormFile("image"); err == nil {
		imageName = fmt.Sprintf("%d%s", time.Now().UnixMilli(), filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, filepath.Join(imageUploadDir, imageName)); err != nil {
			logging.From(c).Error("image upload failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return
		}
	}

	product := models.Product{
		ID:                 primitive.NewObjectID(),
		Name:               name,
		Description:        c.PostForm("description"),
		Price:              price,
		Quantity:           quantity,
		Category:           category,
		DiscountPercentage: discount,
		OfferMessage:       c.PostForm("offerMessage"),
		Image:              imageName,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = database.ProductCollection.InsertOne(ctx, product)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product created", "product": product})
}

func UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var body struct {
		Name               *string  `json:"name"`
		Description        *string  `json:"description"`
		Price              *float64 `json:"price"`
		Quantity           *int     `json:"quantity"`
		Category           *string  `json:"category"`
		DiscountPercentage *float64 `json:"discountPercentage"`
		OfferMessage       *string  `json:"offerMessage"`
		Image              *string  `json:"image"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	update := bson.M{}
	if body.Name != nil {
		update["name"] = *body.Name
	}
	if body.Description != nil {
		update["description"] = *body.Description
	}
	if body.Price != nil {
		update["price"] = *body.Price
	}
	if body.Quantity != nil {
		update["quantity"] = *body.Quantity
	}
	if body.Category != nil {
		update["category"] = *body.Category
	}
	if body.DiscountPercentage != nil {
		update["discountPercentage"] = *body.DiscountPercentage
	}
	if body.OfferMessage != nil {
		update["offerMessage"] = *body.OfferMessage
	}
	if body.Image != nil {
		update["image"] = *body.Image
	}
	update["updatedAt"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updatedProduct models.Product
	err = database.ProductCollection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": update}, opts).Decode(&updatedProduct)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, updatedProduct)
}

// RestockProduct increments stock by a positive amount.
func RestockProduct(c *gin.Context) {
	id := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var body struct {
		Amount int `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restock amount"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := database.Inventory.Increment(ctx, objID, body.Amount); err != nil {
		if err == database.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not restock product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Increased stock by %d", body.Amount)})
}

func DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = database.ProductCollection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted", "id": id})
}
