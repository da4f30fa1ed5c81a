package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/store"
)

func (s *Service) ListCustomers(ctx context.Context, query string) ([]domain.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return customers, nil
	}
	return slices.DeleteFunc(customers, func(c domain.Customer) bool {
		return !containsFold(c.Name, query) && !containsFold(c.Vehicle.LicensePlate, query)
	}), nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.Customer) (domain.Customer, error) {
	req.ID = s.ids.New("cus")
	if req.LastServiceDate.IsZero() {
		req.LastServiceDate = s.now()
	}
	customer, err := normalizeCustomer(req)
	if err != nil {
		return domain.Customer{}, err
	}

	created, err := s.repo.SaveCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, "customer_create", "customer", created.ID, created.Vehicle.LicensePlate)
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.Customer) (domain.Customer, error) {
	existing, err := s.repo.GetCustomer(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Customer{}, err
	}
	req.ID = existing.ID
	if req.LastServiceDate.IsZero() {
		req.LastServiceDate = existing.LastServiceDate
	}
	customer, err := normalizeCustomer(req)
	if err != nil {
		return domain.Customer{}, err
	}

	saved, err := s.repo.SaveCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, "customer_update", "customer", saved.ID, "")
	return *saved, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "customer_delete", "customer", id, "")
	return nil
}

// MessageCustomer sends a free-form message through the notifier.
func (s *Service) MessageCustomer(ctx context.Context, id string, req domain.CustomerMessageRequest) error {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return validationf("message is required")
	}
	customer, err := s.repo.GetCustomer(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if err := s.notifier.Send(ctx, *customer, message); err != nil {
		return fmt.Errorf("send message to %s: %w", customer.ID, err)
	}
	s.logAudit(ctx, "customer_message", "customer", customer.ID, "")
	return nil
}

func normalizeCustomer(c domain.Customer) (domain.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Vehicle.LicensePlate = normalizePlate(c.Vehicle.LicensePlate)
	c.Vehicle.Brand = strings.TrimSpace(c.Vehicle.Brand)
	c.Vehicle.Model = strings.TrimSpace(c.Vehicle.Model)
	c.Vehicle.Year = strings.TrimSpace(c.Vehicle.Year)
	c.LastServiceDate = c.LastServiceDate.UTC()

	if c.Name == "" || c.Phone == "" {
		return domain.Customer{}, validationf("customer name and phone are required")
	}
	if c.Vehicle.LicensePlate == "" || c.Vehicle.Brand == "" || c.Vehicle.Model == "" {
		return domain.Customer{}, validationf("customer vehicle plate, brand and model are required")
	}
	return c, nil
}

func (s *Service) ListEmployees(ctx context.Context, query string) ([]domain.Employee, error) {
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return employees, nil
	}
	return slices.DeleteFunc(employees, func(e domain.Employee) bool {
		return !containsFold(e.Name, query) && !containsFold(e.Position, query)
	}), nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	employee, err := s.repo.GetEmployee(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Employee{}, err
	}
	return *employee, nil
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.Employee) (domain.Employee, error) {
	req.ID = s.ids.New("emp")
	if req.StartDate.IsZero() {
		req.StartDate = startOfDay(s.now())
	}
	req.Status = defaultString(req.Status, domain.StatusActive)
	employee, err := normalizeEmployee(req)
	if err != nil {
		return domain.Employee{}, err
	}

	created, err := s.repo.SaveEmployee(ctx, employee)
	if err != nil {
		return domain.Employee{}, err
	}
	s.logAudit(ctx, "employee_create", "employee", created.ID, created.Position)
	return *created, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, req domain.Employee) (domain.Employee, error) {
	existing, err := s.repo.GetEmployee(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Employee{}, err
	}
	req.ID = existing.ID
	if req.StartDate.IsZero() {
		req.StartDate = existing.StartDate
	}
	req.Status = defaultString(req.Status, existing.Status)
	employee, err := normalizeEmployee(req)
	if err != nil {
		return domain.Employee{}, err
	}

	saved, err := s.repo.SaveEmployee(ctx, employee)
	if err != nil {
		return domain.Employee{}, err
	}
	s.logAudit(ctx, "employee_update", "employee", saved.ID, "status="+saved.Status)
	return *saved, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "employee_delete", "employee", id, "")
	return nil
}

func normalizeEmployee(e domain.Employee) (domain.Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Position = strings.TrimSpace(e.Position)
	e.Email = strings.TrimSpace(e.Email)
	e.Phone = strings.TrimSpace(e.Phone)
	e.Specialties = trimAll(e.Specialties)
	e.StartDate = e.StartDate.UTC()

	if e.Name == "" || e.Position == "" {
		return domain.Employee{}, validationf("employee name and position are required")
	}
	if e.Status != domain.StatusActive && e.Status != domain.StatusInactive {
		return domain.Employee{}, validationf("status must be active or inactive")
	}
	if e.Salary < 0 {
		return domain.Employee{}, validationf("salary must not be negative")
	}
	start, err := parseClock(e.Schedule.Start)
	if err != nil {
		return domain.Employee{}, err
	}
	end, err := parseClock(e.Schedule.End)
	if err != nil {
		return domain.Employee{}, err
	}
	if !end.After(start) {
		return domain.Employee{}, validationf("schedule end must be after start")
	}
	return e, nil
}

func parseClock(value string) (time.Time, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, validationf("schedule times must be HH:MM")
	}
	return parsed, nil
}

func (s *Service) ListSuppliers(ctx context.Context, query string) ([]domain.Supplier, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return suppliers, nil
	}
	return slices.DeleteFunc(suppliers, func(sup domain.Supplier) bool {
		return !containsFold(sup.Name, query) && !containsFold(sup.ContactPerson, query)
	}), nil
}

func (s *Service) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	supplier, err := s.repo.GetSupplier(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Supplier{}, err
	}
	return *supplier, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.Supplier) (domain.Supplier, error) {
	req.ID = s.ids.New("sup")
	req.Status = defaultString(req.Status, domain.StatusActive)
	supplier, err := normalizeSupplier(req)
	if err != nil {
		return domain.Supplier{}, err
	}

	created, err := s.repo.SaveSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_create", "supplier", created.ID, created.Name)
	return *created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, req domain.Supplier) (domain.Supplier, error) {
	existing, err := s.repo.GetSupplier(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Supplier{}, err
	}
	req.ID = existing.ID
	req.Status = defaultString(req.Status, existing.Status)
	if req.LastOrderDate == nil {
		req.LastOrderDate = existing.LastOrderDate
	}
	supplier, err := normalizeSupplier(req)
	if err != nil {
		return domain.Supplier{}, err
	}

	saved, err := s.repo.SaveSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_update", "supplier", saved.ID, "status="+saved.Status)
	return *saved, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "supplier_delete", "supplier", id, "")
	return nil
}

func normalizeSupplier(sup domain.Supplier) (domain.Supplier, error) {
	sup.Name = strings.TrimSpace(sup.Name)
	sup.ContactPerson = strings.TrimSpace(sup.ContactPerson)
	sup.Email = strings.TrimSpace(sup.Email)
	sup.Phone = strings.TrimSpace(sup.Phone)
	sup.Address = strings.TrimSpace(sup.Address)
	sup.PaymentTerms = strings.TrimSpace(sup.PaymentTerms)
	sup.Notes = strings.TrimSpace(sup.Notes)
	sup.Products = trimAll(sup.Products)

	if sup.Name == "" || sup.ContactPerson == "" {
		return domain.Supplier{}, validationf("supplier name and contact person are required")
	}
	if sup.Status != domain.StatusActive && sup.Status != domain.StatusInactive {
		return domain.Supplier{}, validationf("status must be active or inactive")
	}
	return sup, nil
}

// errNotFoundAs rewrites a bare not-found into one naming the entity.
func errNotFoundAs(err error, entity string, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, entity, id)
	}
	return err
}
