package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-datagen-service/entity"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(template *entity.Template) error {
	return r.db.Create(template).Error
}

func (r *TemplateRepository) FindByID(id uuid.UUID) (*entity.Template, error) {
	var template entity.Template
	err := r.db.Where("id = ?", id).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) FindByName(name string) (*entity.Template, error) {
	var template entity.Template
	err := r.db.Where("name = ?", name).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) List() ([]entity.Template, error) {
	var templates []entity.Template
	err := r.db.Order("name ASC").Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepository) Update(template *entity.Template) error {
	return r.db.Save(template).Error
}

func (r *TemplateRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.Template{}, "id = ?", id).Error
}
