package repository

import "github.com/tnqbao/gau-datagen-service/infra"

type Repository struct {
	JobRepo      *JobRepository
	TemplateRepo *TemplateRepository
}

func InitRepository(infra *infra.Infra) *Repository {
	return &Repository{
		JobRepo:      NewJobRepository(infra.Postgres.DB),
		TemplateRepo: NewTemplateRepository(infra.Postgres.DB),
	}
}
