package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/attachments"
	"github.com/praxxy/backoffice/models"
	"github.com/praxxy/backoffice/storage"
	"github.com/praxxy/backoffice/utils"
	"github.com/praxxy/backoffice/validation"
)

var productMessages = validation.Messages{
	"name.required":          "Product name is required",
	"name.min":               "Product name must be at least 3 characters",
	"name.max":               "Product name must be less than 255 characters",
	"description.required":   "Product description is required",
	"description.min":        "Product description must be at least 10 characters",
	"category.required":      "Product category is required",
	"category.oneof":         "Please select a valid category",
	"date_and_time.required": "Date and time is required",
}

const (
	msgImagesRequired = "At least one image is required"
	msgImagesMax      = "Maximum 5 images allowed"
)

// ProductController manages marketplace listings and their images.
type ProductController struct {
	db         *gorm.DB
	reconciler *attachments.Reconciler
	now        func() time.Time
}

// NewProductController creates a new ProductController instance.
func NewProductController(db *gorm.DB, reconciler *attachments.Reconciler) *ProductController {
	return &ProductController{db: db, reconciler: reconciler, now: time.Now}
}

type productForm struct {
	Name        string `form:"name" binding:"required,min=3,max=255"`
	Description string `form:"description" binding:"required,min=10"`
	Category    string `form:"category" binding:"required,oneof=Electronics Clothing Food Books Other"`
	DateAndTime string `form:"date_and_time" binding:"required"`
}

// Sanitize strips markup so the length rules apply to the stored text.
func (f *productForm) Sanitize() {
	f.Name = utils.SanitizeText(f.Name)
	f.Description = utils.SanitizeText(f.Description)
	f.Category = strings.TrimSpace(f.Category)
	f.DateAndTime = strings.TrimSpace(f.DateAndTime)
}

type productFields struct {
	name        string
	description string
	category    string
	dateAndTime time.Time
}

// bindProduct validates the scalar fields, adding every failure to errs.
func (p *ProductController) bindProduct(ctx *gin.Context, errs validation.Errors) productFields {
	var form productForm
	if err := ctx.ShouldBind(&form); err != nil {
		errs.Merge(validation.FromBinding(err, productMessages))
	}
	fields := productFields{
		name:        form.Name,
		description: form.Description,
		category:    form.Category,
	}
	if form.DateAndTime != "" {
		t, err := validation.ParseFuture(form.DateAndTime, p.now())
		switch {
		case errors.Is(err, validation.ErrNotFuture):
			errs.Add("date_and_time", "Date and time must be in the future")
		case err != nil:
			errs.Add("date_and_time", "Date and time must be a valid date")
		}
		fields.dateAndTime = t
	}
	return fields
}

// ListProducts returns products filtered by search text and category, newest first.
func (p *ProductController) ListProducts(ctx *gin.Context) {
	page := parsePage(ctx.Query("page"))
	search := strings.ToLower(strings.TrimSpace(ctx.Query("search")))
	category := strings.ToLower(strings.TrimSpace(ctx.Query("category")))

	query := p.db.WithContext(ctx.Request.Context()).Model(&models.Product{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if category != "" {
		query = query.Where("LOWER(category) = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondError(ctx, err, "Failed to list products", "")
		return
	}
	products := []models.Product{}
	if err := query.Order("created_at DESC, id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&products).Error; err != nil {
		respondError(ctx, err, "Failed to list products", "")
		return
	}
	utils.Success(ctx, paginated(products, page, total))
}

// CreateProduct stores the uploaded images and then the product referencing them.
func (p *ProductController) CreateProduct(ctx *gin.Context) {
	errs := validation.Errors{}
	fields := p.bindProduct(ctx, errs)
	files := formFiles(ctx, "images")
	switch {
	case len(files) == 0:
		errs.Add("images", msgImagesRequired)
	case len(files) > models.MaxProductImages:
		errs.Add("images", msgImagesMax)
	default:
		validation.CheckFiles("images", files, validation.ImageRule, errs)
	}
	if len(errs) > 0 {
		utils.ValidationFailed(ctx, errs)
		return
	}

	rctx := ctx.Request.Context()
	var product models.Product
	_, err := p.reconciler.Create(rctx, attachments.Items(storage.PrefixProducts, files), func(urls []string) error {
		product = models.Product{
			Name:        fields.name,
			Description: fields.description,
			Category:    fields.category,
			DateAndTime: fields.dateAndTime,
			Images:      urls,
		}
		return p.db.WithContext(rctx).Create(&product).Error
	})
	if err != nil {
		respondError(ctx, err, "Error creating product", "")
		return
	}
	utils.Created(ctx, "Product created successfully", product)
}

// UpdateProduct merges retained and new images. New files are stored before the
// record is written and replaced files are deleted only after it was.
func (p *ProductController) UpdateProduct(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "Product not found")
		return
	}
	rctx := ctx.Request.Context()
	var product models.Product
	if err := p.db.WithContext(rctx).First(&product, id).Error; err != nil {
		respondError(ctx, err, "Failed to update product", "Product not found")
		return
	}

	errs := validation.Errors{}
	fields := p.bindProduct(ctx, errs)
	newFiles := formFiles(ctx, "new_images")
	validation.CheckFiles("new_images", newFiles, validation.ImageRule, errs)

	retained, obsolete := planImages(product.Images, formValues(ctx, "existing_images"), formValues(ctx, "images_to_delete"))
	switch total := len(retained) + len(newFiles); {
	case total > models.MaxProductImages:
		errs.Add("images", msgImagesMax)
	case total == 0:
		errs.Add("images", msgImagesRequired)
	}
	if len(errs) > 0 {
		utils.ValidationFailed(ctx, errs)
		return
	}

	_, err := p.reconciler.Replace(rctx, attachments.Items(storage.PrefixProducts, newFiles), obsolete, func(urls []string) error {
		product.Name = fields.name
		product.Description = fields.description
		product.Category = fields.category
		product.DateAndTime = fields.dateAndTime
		product.Images = append(append([]string{}, retained...), urls...)
		return p.saveProduct(rctx, &product)
	})
	if err != nil {
		respondError(ctx, err, "Failed to update product", "Product not found")
		return
	}
	utils.Message(ctx, "Product updated successfully", product)
}

func (p *ProductController) saveProduct(ctx context.Context, product *models.Product) error {
	tx := p.db.WithContext(ctx).Model(product).
		Select("Name", "Description", "Category", "DateAndTime", "Images", "UpdatedAt").
		Updates(product)
	return rowsOrNotFound(tx)
}

// planImages keeps the requested images the product actually has and that are not
// marked for deletion. Everything else the product currently references becomes obsolete.
func planImages(current, existing, toDelete []string) (retained, obsolete []string) {
	retained = []string{}
	for _, u := range existing {
		if utils.ContainsString(current, u) && !utils.ContainsString(toDelete, u) {
			retained = append(retained, u)
		}
	}
	obsolete = []string{}
	for _, u := range current {
		if !utils.ContainsString(retained, u) {
			obsolete = append(obsolete, u)
		}
	}
	return retained, obsolete
}

// DeleteProduct removes the record. Its image files are left in storage.
func (p *ProductController) DeleteProduct(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "Product not found")
		return
	}
	tx := p.db.WithContext(ctx.Request.Context()).Delete(&models.Product{}, id)
	if err := rowsOrNotFound(tx); err != nil {
		respondError(ctx, err, "Failed to delete product", "Product not found")
		return
	}
	utils.Message(ctx, "Product deleted successfully", nil)
}
