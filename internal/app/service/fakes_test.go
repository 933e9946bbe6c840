package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"agrimarket/internal/common"
	"agrimarket/internal/common/security"
	"agrimarket/internal/domain/model"
	"agrimarket/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

func TestMain(m *testing.M) {
	config.Load()
	security.InitJWT()
	os.Exit(m.Run())
}

// In-memory repository fakes. They return copies so callers mutating a
// returned record cannot bypass the Update path, same as a real store.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return common.ErrConflict
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) add(u model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := u
	f.users[u.ID] = &cp
}

type fakeCropRepo struct {
	mu    sync.Mutex
	crops map[string]*model.Crop
}

func newFakeCropRepo() *fakeCropRepo {
	return &fakeCropRepo{crops: map[string]*model.Crop{}}
}

func (f *fakeCropRepo) Create(ctx context.Context, crop *model.Crop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *crop
	f.crops[crop.ID] = &cp
	return nil
}

func (f *fakeCropRepo) FindByID(ctx context.Context, id string) (*model.Crop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.crops[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCropRepo) FindBySlug(ctx context.Context, slug string) (*model.Crop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.crops {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeCropRepo) ListByFarmer(ctx context.Context, farmerID string) ([]model.Crop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	crops := []model.Crop{}
	for _, c := range f.crops {
		if c.FarmerID == farmerID {
			crops = append(crops, *c)
		}
	}
	return crops, nil
}

func (f *fakeCropRepo) ListPublished(ctx context.Context, cropType string) ([]model.Crop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	crops := []model.Crop{}
	for _, c := range f.crops {
		if !c.Published {
			continue
		}
		if cropType != "" && cropType != model.CropTypeAll && c.Type != cropType {
			continue
		}
		crops = append(crops, *c)
	}
	return crops, nil
}

func (f *fakeCropRepo) Update(ctx context.Context, crop *model.Crop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.crops[crop.ID]
	if !ok {
		return common.ErrNotFound
	}
	cp := *crop
	cp.Views = existing.Views
	cp.Orders = existing.Orders
	f.crops[crop.ID] = &cp
	return nil
}

func (f *fakeCropRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.crops[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.crops, id)
	return nil
}

func (f *fakeCropRepo) IncrementViews(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.crops[id]; ok {
		c.Views++
	}
	return nil
}

func (f *fakeCropRepo) UpdateDiseaseAnalysis(ctx context.Context, id string, analysis *model.DiseaseAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.crops[id]
	if !ok {
		return common.ErrNotFound
	}
	c.DiseaseAnalysis = analysis
	return nil
}

func (f *fakeCropRepo) add(c model.Crop) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := c
	f.crops[c.ID] = &cp
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	crops  *fakeCropRepo
}

func newFakeOrderRepo(crops *fakeCropRepo) *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*model.Order{}, crops: crops}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	f.crops.mu.Lock()
	crop, ok := f.crops.crops[order.CropID]
	if !ok {
		f.crops.mu.Unlock()
		return common.ErrNotFound
	}
	crop.Orders++
	f.crops.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	orders := []model.Order{}
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) ListByFarmer(ctx context.Context, farmerID string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	orders := []model.Order{}
	for _, o := range f.orders {
		if o.FarmerID == farmerID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return common.ErrNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderRepo) CountByCrop(ctx context.Context, cropID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, o := range f.orders {
		if o.CropID == cropID {
			count++
		}
	}
	return count, nil
}

type fakeAnalysisJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.AnalysisJob
}

func newFakeAnalysisJobRepo() *fakeAnalysisJobRepo {
	return &fakeAnalysisJobRepo{jobs: map[string]*model.AnalysisJob{}}
}

func (f *fakeAnalysisJobRepo) Create(ctx context.Context, job *model.AnalysisJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeAnalysisJobRepo) FindByID(ctx context.Context, id string) (*model.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeAnalysisJobRepo) UpdateStatus(ctx context.Context, id string, status model.AnalysisJobStatus, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return common.ErrNotFound
	}
	j.Status = status
	j.ErrorMessage = errorMessage
	return nil
}

type fakeQueuer struct {
	mu     sync.Mutex
	pushed []string
	err    error
}

func (f *fakeQueuer) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.pushed = append(f.pushed, fmt.Sprint(v))
	}
	return redis.NewIntResult(int64(len(values)), nil)
}
