package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-datagen-service/entity"
	"github.com/tnqbao/gau-datagen-service/generator"
	"github.com/tnqbao/gau-datagen-service/http/controller/dto"
	"github.com/tnqbao/gau-datagen-service/utils"
)

func (ctrl *Controller) CreateTemplate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	// Template names must not shadow builtin kinds.
	if ctrl.Registry.Has(req.Name) {
		utils.JSON409(c, "Template name conflicts with a builtin data type")
		return
	}

	if _, err := generator.ParseDefinition(req.SchemaDef); err != nil {
		utils.JSON400(c, err.Error())
		return
	}

	template := &entity.Template{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		SchemaDef:   datatypes.JSON(req.SchemaDef),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := ctrl.Repository.TemplateRepo.Create(template); err != nil {
		if isUniqueViolation(err) {
			utils.JSON409(c, "Template name already exists")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Template] Failed to create template '%s'", req.Name)
		utils.JSON500(c, "Failed to create template")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Template] Created template '%s'", template.Name)
	utils.JSON201(c, dto.FromTemplate(template))
}

func (ctrl *Controller) ListTemplates(c *gin.Context) {
	templates, err := ctrl.Repository.TemplateRepo.List()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Template] Failed to list templates")
		utils.JSON500(c, "Failed to list templates")
		return
	}

	resp := make([]dto.TemplateResponse, 0, len(templates))
	for i := range templates {
		resp = append(resp, dto.FromTemplate(&templates[i]))
	}
	utils.JSON200(c, gin.H{"templates": resp})
}

func (ctrl *Controller) GetTemplate(c *gin.Context) {
	template, ok := ctrl.findTemplate(c)
	if !ok {
		return
	}
	utils.JSON200(c, dto.FromTemplate(template))
}

func (ctrl *Controller) UpdateTemplate(c *gin.Context) {
	ctx := c.Request.Context()
	template, ok := ctrl.findTemplate(c)
	if !ok {
		return
	}

	var req dto.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	if ctrl.Registry.Has(req.Name) {
		utils.JSON409(c, "Template name conflicts with a builtin data type")
		return
	}

	if _, err := generator.ParseDefinition(req.SchemaDef); err != nil {
		utils.JSON400(c, err.Error())
		return
	}

	// Jobs freeze the definition at submission, so editing a template never
	// affects jobs already submitted from it.
	template.Name = req.Name
	template.Description = req.Description
	template.SchemaDef = datatypes.JSON(req.SchemaDef)
	template.UpdatedAt = time.Now()

	if err := ctrl.Repository.TemplateRepo.Update(template); err != nil {
		if isUniqueViolation(err) {
			utils.JSON409(c, "Template name already exists")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Template] Failed to update template %s", template.ID)
		utils.JSON500(c, "Failed to update template")
		return
	}

	utils.JSON200(c, dto.FromTemplate(template))
}

func (ctrl *Controller) DeleteTemplate(c *gin.Context) {
	ctx := c.Request.Context()
	template, ok := ctrl.findTemplate(c)
	if !ok {
		return
	}

	if err := ctrl.Repository.TemplateRepo.Delete(template.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Template] Failed to delete template %s", template.ID)
		utils.JSON500(c, "Failed to delete template")
		return
	}

	utils.JSON200(c, gin.H{"id": template.ID.String(), "deleted": true})
}

func (ctrl *Controller) findTemplate(c *gin.Context) (*entity.Template, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid template id")
		return nil, false
	}

	template, err := ctrl.Repository.TemplateRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSON404(c, "Template not found")
			return nil, false
		}
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[Template] Failed to load template %s", id)
		utils.JSON500(c, "Failed to load template")
		return nil, false
	}
	return template, true
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key")
}
