package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// MemoryRepository keeps users in process memory with the same uniqueness
// rules as the Postgres schema. It backs tests and DSN-less runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	byName  map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byName:  make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byName[name].Clone(), nil
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	user.CreatedAt = r.now().UTC()
	r.byName[user.Username] = user.Clone()
	r.byEmail[user.Email] = user.Username
	return user, nil
}

func (r *MemoryRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byName[user.Username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if owner, taken := r.byEmail[user.Email]; taken && owner != user.Username {
		return nil, common.ErrorAlreadyExists
	}

	delete(r.byEmail, cur.Email)
	user.CreatedAt = cur.CreatedAt
	r.byName[user.Username] = user.Clone()
	r.byEmail[user.Email] = user.Username
	return user, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byName[username]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byName, username)
	return nil
}

func (r *MemoryRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.User, 0, len(r.byName))
	for _, u := range r.byName {
		result = append(result, u.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}
