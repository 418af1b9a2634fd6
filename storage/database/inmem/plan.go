package inmemdb

import (
	"context"

	"github.com/trezcool/studyplanner/core/plan"
)

type planRepository struct {
	db *planTable
}

func NewPlanRepository(db *DB) plan.Repository {
	return &planRepository{db: db.plan}
}

func (repo *planRepository) GetPlan(_ context.Context, userID string) (plan.Plan, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	p, ok := repo.db.table[userID]
	if !ok {
		return plan.Plan{}, plan.ErrPlanNotFound
	}
	return p.Clone(), nil
}

func (repo *planRepository) SavePlan(_ context.Context, userID string, p plan.Plan) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[userID] = p.Clone()
	return nil
}
