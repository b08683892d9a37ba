package controller

import (
	"github.com/tnqbao/gau-datagen-service/config"
	"github.com/tnqbao/gau-datagen-service/generator"
	"github.com/tnqbao/gau-datagen-service/infra"
	"github.com/tnqbao/gau-datagen-service/repository"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Registry   *generator.Registry
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}
	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
		Registry:   generator.NewRegistry(),
	}
}
