package memstore

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(user.Email, 0) {
		return repository.ErrDuplicate
	}
	user.ID = r.s.next("users")
	record(ctx, r.s.users, user.ID)
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) Update(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	record(ctx, r.s.users, user.ID)
	r.s.users[user.ID] = *user
	return nil
}

// Delete cascades to the user's client and technician profiles, failing when
// either still has tickets.
func (r userRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	var clientIDs, technicianIDs []int64
	for _, c := range r.s.clients {
		if c.UserID == id {
			if r.s.clientHasTickets(c.ID) {
				return repository.ErrReferenced
			}
			clientIDs = append(clientIDs, c.ID)
		}
	}
	for _, t := range r.s.technicians {
		if t.UserID == id {
			if r.s.technicianHasTickets(t.ID) {
				return repository.ErrReferenced
			}
			technicianIDs = append(technicianIDs, t.ID)
		}
	}
	for _, cid := range clientIDs {
		record(ctx, r.s.clients, cid)
		delete(r.s.clients, cid)
	}
	for _, tid := range technicianIDs {
		record(ctx, r.s.technicians, tid)
		delete(r.s.technicians, tid)
	}
	record(ctx, r.s.users, id)
	delete(r.s.users, id)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r userRepo) emailTaken(email string, except int64) bool {
	for _, u := range r.s.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

type clientRepo struct{ s *Store }

func (r clientRepo) Create(ctx context.Context, client *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.check(client); err != nil {
		return err
	}
	client.ID = r.s.next("clients")
	r.put(ctx, client)
	return nil
}

func (r clientRepo) Update(ctx context.Context, client *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[client.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.check(client); err != nil {
		return err
	}
	r.put(ctx, client)
	return nil
}

func (r clientRepo) check(client *domain.Client) error {
	if _, ok := r.s.users[client.UserID]; !ok {
		return repository.ErrReferenced
	}
	for _, c := range r.s.clients {
		if c.UserID == client.UserID && c.ID != client.ID {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r clientRepo) put(ctx context.Context, client *domain.Client) {
	stored := *client
	stored.Company = cloneString(client.Company)
	record(ctx, r.s.clients, client.ID)
	r.s.clients[client.ID] = stored
}

func (r clientRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[id]; !ok {
		return repository.ErrNotFound
	}
	if r.s.clientHasTickets(id) {
		return repository.ErrReferenced
	}
	record(ctx, r.s.clients, id)
	delete(r.s.clients, id)
	return nil
}

func (r clientRepo) GetByID(_ context.Context, id int64) (*domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	client, ok := r.s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	client.Company = cloneString(client.Company)
	return &client, nil
}

func (r clientRepo) GetByUserID(_ context.Context, userID int64) (*domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, client := range r.s.clients {
		if client.UserID == userID {
			client.Company = cloneString(client.Company)
			return &client, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r clientRepo) List(_ context.Context) ([]domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	clients := make([]domain.Client, 0, len(r.s.clients))
	for _, client := range r.s.clients {
		client.Company = cloneString(client.Company)
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

type technicianRepo struct{ s *Store }

func (r technicianRepo) Create(ctx context.Context, technician *domain.Technician) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.check(technician); err != nil {
		return err
	}
	technician.ID = r.s.next("technicians")
	r.put(ctx, technician)
	return nil
}

func (r technicianRepo) Update(ctx context.Context, technician *domain.Technician) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.technicians[technician.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.check(technician); err != nil {
		return err
	}
	r.put(ctx, technician)
	return nil
}

func (r technicianRepo) check(technician *domain.Technician) error {
	if _, ok := r.s.users[technician.UserID]; !ok {
		return repository.ErrReferenced
	}
	for _, t := range r.s.technicians {
		if t.UserID == technician.UserID && t.ID != technician.ID {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r technicianRepo) put(ctx context.Context, technician *domain.Technician) {
	stored := *technician
	stored.Specialty = cloneString(technician.Specialty)
	record(ctx, r.s.technicians, technician.ID)
	r.s.technicians[technician.ID] = stored
}

func (r technicianRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.technicians[id]; !ok {
		return repository.ErrNotFound
	}
	if r.s.technicianHasTickets(id) {
		return repository.ErrReferenced
	}
	record(ctx, r.s.technicians, id)
	delete(r.s.technicians, id)
	return nil
}

func (r technicianRepo) GetByID(_ context.Context, id int64) (*domain.Technician, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	technician, ok := r.s.technicians[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	technician.Specialty = cloneString(technician.Specialty)
	return &technician, nil
}

func (r technicianRepo) GetByUserID(_ context.Context, userID int64) (*domain.Technician, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, technician := range r.s.technicians {
		if technician.UserID == userID {
			technician.Specialty = cloneString(technician.Specialty)
			return &technician, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r technicianRepo) List(_ context.Context) ([]domain.Technician, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	technicians := make([]domain.Technician, 0, len(r.s.technicians))
	for _, technician := range r.s.technicians {
		technician.Specialty = cloneString(technician.Specialty)
		technicians = append(technicians, technician)
	}
	sort.Slice(technicians, func(i, j int) bool { return technicians[i].ID < technicians[j].ID })
	return technicians, nil
}

// Lock only checks existence; InTx already serializes transactions.
func (r technicianRepo) Lock(_ context.Context, id int64) error {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.technicians[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(ctx context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(category.Name, 0) {
		return repository.ErrDuplicate
	}
	category.ID = r.s.next("categories")
	r.put(ctx, category)
	return nil
}

func (r categoryRepo) Update(ctx context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[category.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(category.Name, category.ID) {
		return repository.ErrDuplicate
	}
	r.put(ctx, category)
	return nil
}

func (r categoryRepo) put(ctx context.Context, category *domain.Category) {
	stored := *category
	stored.Description = cloneString(category.Description)
	record(ctx, r.s.categories, category.ID)
	r.s.categories[category.ID] = stored
}

func (r categoryRepo) nameTaken(name string, except int64) bool {
	for _, c := range r.s.categories {
		if c.Name == name && c.ID != except {
			return true
		}
	}
	return false
}

func (r categoryRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, t := range r.s.tickets {
		if t.CategoryID == id {
			return repository.ErrReferenced
		}
	}
	record(ctx, r.s.categories, id)
	delete(r.s.categories, id)
	return nil
}

func (r categoryRepo) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	category, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	category.Description = cloneString(category.Description)
	return &category, nil
}

func (r categoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, category := range r.s.categories {
		if category.Name == name {
			category.Description = cloneString(category.Description)
			return &category, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	categories := make([]domain.Category, 0, len(r.s.categories))
	for _, category := range r.s.categories {
		category.Description = cloneString(category.Description)
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *Store) clientHasTickets(clientID int64) bool {
	for _, t := range s.tickets {
		if t.ClientID == clientID {
			return true
		}
	}
	return false
}

func (s *Store) technicianHasTickets(technicianID int64) bool {
	for _, t := range s.tickets {
		if t.TechnicianID != nil && *t.TechnicianID == technicianID {
			return true
		}
	}
	return false
}
