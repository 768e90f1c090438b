package importer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/JorisBrandt/PayImport/app/models"
	"github.com/JorisBrandt/PayImport/internal/pkg/memberpress"
	"github.com/JorisBrandt/PayImport/internal/pkg/mollie"
)

// memSubscriptionRepo is an in-memory SubscriptionRepository for tests.
type memSubscriptionRepo struct {
	subs   map[uint]*models.Subscription
	nextID uint
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: make(map[uint]*models.Subscription), nextID: 1}
}

func cloneSubscription(s *models.Subscription) *models.Subscription {
	out := *s
	out.Phases = append([]models.SubscriptionPhase(nil), s.Phases...)
	out.Meta = append([]models.SubscriptionMeta(nil), s.Meta...)
	return &out
}

func (r *memSubscriptionRepo) GetByID(id uint) (*models.Subscription, error) {
	if s, ok := r.subs[id]; ok {
		return cloneSubscription(s), nil
	}
	return nil, fmt.Errorf("subscription %d not found", id)
}

func (r *memSubscriptionRepo) GetBySource(source, sourceID string) (*models.Subscription, error) {
	var ids []uint
	for id, s := range r.subs {
		if s.Source == source && s.SourceID == sourceID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("subscription %s/%s not found", source, sourceID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return cloneSubscription(r.subs[ids[0]]), nil
}

func (r *memSubscriptionRepo) Save(sub *models.Subscription) error {
	if sub.ID == 0 {
		sub.ID = r.nextID
		r.nextID++
	}
	for i := range sub.Phases {
		sub.Phases[i].SubscriptionID = sub.ID
	}
	r.subs[sub.ID] = cloneSubscription(sub)
	return nil
}

func (r *memSubscriptionRepo) Reload(sub *models.Subscription) (*models.Subscription, error) {
	return r.GetByID(sub.ID)
}

func (r *memSubscriptionRepo) SetMeta(subscriptionID uint, key, value string) error {
	s, ok := r.subs[subscriptionID]
	if !ok {
		return fmt.Errorf("subscription %d not found", subscriptionID)
	}
	for i := range s.Meta {
		if s.Meta[i].Key == key {
			s.Meta[i].Value = value
			return nil
		}
	}
	s.Meta = append(s.Meta, models.SubscriptionMeta{SubscriptionID: subscriptionID, Key: key, Value: value})
	return nil
}

func (r *memSubscriptionRepo) List(offset, limit int) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range r.subs {
		out = append(out, *cloneSubscription(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSubscriptionRepo) Count() (int64, error) {
	return int64(len(r.subs)), nil
}

// memCustomerRepo is an in-memory CustomerRepository.
type memCustomerRepo struct {
	customers map[string]*models.Customer
	nextID    uint
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[string]*models.Customer), nextID: 1}
}

func (r *memCustomerRepo) UpsertByMollieID(customer *models.Customer) error {
	if existing, ok := r.customers[customer.MollieID]; ok {
		customer.ID = existing.ID
	} else {
		customer.ID = r.nextID
		r.nextID++
	}
	stored := *customer
	r.customers[customer.MollieID] = &stored
	return nil
}

func (r *memCustomerRepo) GetByMollieID(mollieID string) (*models.Customer, error) {
	if c, ok := r.customers[mollieID]; ok {
		out := *c
		return &out, nil
	}
	return nil, fmt.Errorf("customer %s not found", mollieID)
}

func (r *memCustomerRepo) GetByEmail(email string) (*models.Customer, error) {
	var match *models.Customer
	for _, c := range r.customers {
		if strings.EqualFold(c.Email, email) && (match == nil || c.ID > match.ID) {
			match = c
		}
	}
	if match == nil {
		return nil, fmt.Errorf("customer %s not found", email)
	}
	out := *match
	return &out, nil
}

func (r *memCustomerRepo) List(offset, limit int) ([]models.Customer, error) {
	var out []models.Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memConfigRepo is an in-memory GatewayConfigRepository.
type memConfigRepo struct {
	configs []*models.GatewayConfig
}

func (r *memConfigRepo) GetByID(id uint) (*models.GatewayConfig, error) {
	for _, c := range r.configs {
		if c.ID == id {
			out := *c
			return &out, nil
		}
	}
	return nil, fmt.Errorf("gateway config %d not found", id)
}

func (r *memConfigRepo) GetDefault() (*models.GatewayConfig, error) {
	for _, c := range r.configs {
		if c.IsDefault {
			out := *c
			return &out, nil
		}
	}
	if len(r.configs) > 0 {
		out := *r.configs[0]
		return &out, nil
	}
	return nil, fmt.Errorf("no gateway config available")
}

// memUserRepo is an in-memory UserRepository.
type memUserRepo struct {
	users map[uint]*models.User
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	r := &memUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) GetByID(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, fmt.Errorf("user %d not found", id)
}

func (r *memUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %s not found", email)
}

// fakeGateway records gateway calls and hands out sequential ids.
type fakeGateway struct {
	customers []mollie.CustomerRequest
	mandates  []mollie.MandateRequest
	failing   bool
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, req mollie.CustomerRequest) (*mollie.Customer, error) {
	if g.failing {
		return nil, fmt.Errorf("gateway unavailable")
	}
	g.customers = append(g.customers, req)
	return &mollie.Customer{
		ID:    fmt.Sprintf("cst_%d", len(g.customers)),
		Name:  req.Name,
		Email: req.Email,
	}, nil
}

func (g *fakeGateway) CreateMandate(ctx context.Context, customerID string, req mollie.MandateRequest) (*mollie.Mandate, error) {
	if g.failing {
		return nil, fmt.Errorf("gateway unavailable")
	}
	g.mandates = append(g.mandates, req)
	return &mollie.Mandate{ID: fmt.Sprintf("mdt_%d", len(g.mandates)), Status: "valid"}, nil
}

// fakeMeprSource serves a fixed set of MemberPress records.
type fakeMeprSource struct {
	subscriptions map[string]*memberpress.Subscription
	products      map[string]*memberpress.Product
}

func (s *fakeMeprSource) Subscription(ctx context.Context, id string) (*memberpress.Subscription, error) {
	if sub, ok := s.subscriptions[id]; ok {
		return sub, nil
	}
	return nil, fmt.Errorf("memberpress subscription %s not found", id)
}

func (s *fakeMeprSource) Product(ctx context.Context, id string) (*memberpress.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("memberpress product %s not found", id)
}
