package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/store"
	"lubricentro/backend/internal/store/seed"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SeedDemo loads the demo catalog and staff. Existing rows are left alone.
func (s *Store) SeedDemo(ctx context.Context) error {
	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	for _, p := range seed.Products() {
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO products (id, name, brand, type, price, stock, quality, compatibility)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO NOTHING
		`, p.ID, p.Name, p.Brand, p.Type, p.Price, p.Stock, p.Quality, jsonText(p.Compatibility)); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	for _, svc := range seed.Services() {
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO services (id, name, description, price, duration, type, includes)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO NOTHING
		`, svc.ID, svc.Name, svc.Description, svc.Price, svc.Duration, svc.Type, jsonText(svc.Includes)); err != nil {
			return fmt.Errorf("seed service %s: %w", svc.ID, err)
		}
	}
	for _, v := range seed.Vehicles() {
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO vehicles (plate_key, license_plate, brand, model, year, engine_type, oil_type)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (plate_key) DO NOTHING
		`, plateKey(v.LicensePlate), v.LicensePlate, v.Brand, v.Model, v.Year, v.EngineType, v.OilType); err != nil {
			return fmt.Errorf("seed vehicle %s: %w", v.LicensePlate, err)
		}
	}
	for _, c := range seed.Customers(time.Now().UTC()) {
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO customers (id, name, phone, last_service_date, vehicle)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, c.Name, c.Phone, c.LastServiceDate, jsonText(c.Vehicle)); err != nil {
			return fmt.Errorf("seed customer %s: %w", c.ID, err)
		}
	}
	for _, e := range seed.Employees() {
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO employees (id, name, position, email, phone, start_date, status, specialties, schedule_start, schedule_end, salary)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.Name, e.Position, e.Email, e.Phone, e.StartDate, e.Status, jsonText(e.Specialties), e.Schedule.Start, e.Schedule.End, e.Salary); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	for _, sup := range seed.Suppliers() {
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO suppliers (id, name, contact_person, email, phone, address, products, payment_terms, status, last_order_date, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (id) DO NOTHING
		`, sup.ID, sup.Name, sup.ContactPerson, sup.Email, sup.Phone, sup.Address, jsonText(sup.Products), sup.PaymentTerms, sup.Status, nullTime(sup.LastOrderDate), nullIfEmpty(sup.Notes)); err != nil {
			return fmt.Errorf("seed supplier %s: %w", sup.ID, err)
		}
	}
	for _, c := range seed.Courses() {
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO courses (id, title, description, duration, level, instructor, rating, enrolled, image)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, c.Title, c.Description, c.Duration, c.Level, c.Instructor, c.Rating, c.Enrolled, c.Image); err != nil {
			return fmt.Errorf("seed course %s: %w", c.ID, err)
		}
	}
	company := seed.Company()
	if _, err := pgTx.ExecContext(ctx, `
		INSERT INTO company (id, name) VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, company.Name); err != nil {
		return fmt.Errorf("seed company: %w", err)
	}

	return pgTx.Commit()
}

const productColumns = `id, name, brand, type, price, stock, quality, compatibility`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	var compatibility []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Type, &p.Price, &p.Stock, &p.Quality, &compatibility); err != nil {
		return domain.Product{}, err
	}
	if err := unmarshalJSON(compatibility, &p.Compatibility); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.ID) == "" || strings.TrimSpace(product.Name) == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, brand, type, price, stock, quality, compatibility)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, brand = EXCLUDED.brand, type = EXCLUDED.type,
			price = EXCLUDED.price, stock = EXCLUDED.stock, quality = EXCLUDED.quality,
			compatibility = EXCLUDED.compatibility
	`, product.ID, product.Name, product.Brand, product.Type, product.Price, product.Stock, product.Quality, jsonText(product.Compatibility))
	if err != nil {
		return nil, err
	}
	saved := product
	return &saved, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return execAffectingOne(ctx, s.db, `DELETE FROM products WHERE id = $1`, id)
}

func (s *Store) DecrementStock(ctx context.Context, qty map[string]int) error {
	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	if err := takeStock(ctx, pgTx, qty); err != nil {
		return err
	}
	return pgTx.Commit()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func takeStock(ctx context.Context, q execer, qty map[string]int) error {
	for id, n := range qty {
		if n < 1 {
			return store.ErrValidation
		}
		var remaining int
		err := q.QueryRowContext(ctx, `
			UPDATE products SET stock = stock - $2
			WHERE id = $1 AND stock >= $2
			RETURNING stock
		`, id, n).Scan(&remaining)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				var exists bool
				if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
					return err
				}
				if !exists {
					return store.ErrNotFound
				}
				return store.ErrValidation
			}
			return err
		}
	}
	return nil
}

const serviceColumns = `id, name, description, price, duration, type, includes`

func scanService(row interface{ Scan(...any) error }) (domain.Service, error) {
	var svc domain.Service
	var includes []byte
	if err := row.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.Price, &svc.Duration, &svc.Type, &includes); err != nil {
		return domain.Service{}, err
	}
	if err := unmarshalJSON(includes, &svc.Includes); err != nil {
		return domain.Service{}, err
	}
	return svc, nil
}

func (s *Store) ListServices(ctx context.Context) ([]domain.Service, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]domain.Service, 0, 8)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (s *Store) GetService(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := scanService(s.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &svc, nil
}

func (s *Store) SaveService(ctx context.Context, svc domain.Service) (*domain.Service, error) {
	if strings.TrimSpace(svc.ID) == "" || strings.TrimSpace(svc.Name) == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO services (id, name, description, price, duration, type, includes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
			duration = EXCLUDED.duration, type = EXCLUDED.type, includes = EXCLUDED.includes
	`, svc.ID, svc.Name, svc.Description, svc.Price, svc.Duration, svc.Type, jsonText(svc.Includes))
	if err != nil {
		return nil, err
	}
	saved := svc
	return &saved, nil
}

func (s *Store) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT license_plate, brand, model, year, engine_type, oil_type
		FROM vehicles
		ORDER BY plate_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0, 32)
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.LicensePlate, &v.Brand, &v.Model, &v.Year, &v.EngineType, &v.OilType); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (s *Store) GetVehicleByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := s.db.QueryRowContext(ctx, `
		SELECT license_plate, brand, model, year, engine_type, oil_type
		FROM vehicles
		WHERE plate_key = $1
	`, plateKey(plate)).Scan(&v.LicensePlate, &v.Brand, &v.Model, &v.Year, &v.EngineType, &v.OilType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (s *Store) CreateVehicle(ctx context.Context, vehicle domain.Vehicle) (*domain.Vehicle, error) {
	key := plateKey(vehicle.LicensePlate)
	if key == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (plate_key, license_plate, brand, model, year, engine_type, oil_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, key, vehicle.LicensePlate, vehicle.Brand, vehicle.Model, vehicle.Year, vehicle.EngineType, vehicle.OilType)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	saved := vehicle
	return &saved, nil
}

const customerColumns = `id, name, phone, last_service_date, vehicle`

func scanCustomer(row interface{ Scan(...any) error }) (domain.Customer, error) {
	var c domain.Customer
	var vehicle []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.LastServiceDate, &vehicle); err != nil {
		return domain.Customer{}, err
	}
	c.LastServiceDate = c.LastServiceDate.UTC()
	if err := unmarshalJSON(vehicle, &c.Vehicle); err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.ID) == "" || strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, last_service_date, vehicle)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, phone = EXCLUDED.phone,
			last_service_date = EXCLUDED.last_service_date, vehicle = EXCLUDED.vehicle
	`, customer.ID, customer.Name, customer.Phone, customer.LastServiceDate, jsonText(customer.Vehicle))
	if err != nil {
		return nil, err
	}
	saved := customer
	return &saved, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return execAffectingOne(ctx, s.db, `DELETE FROM customers WHERE id = $1`, id)
}

const employeeColumns = `id, name, position, email, phone, start_date, status, specialties, schedule_start, schedule_end, salary`

func scanEmployee(row interface{ Scan(...any) error }) (domain.Employee, error) {
	var e domain.Employee
	var specialties []byte
	if err := row.Scan(&e.ID, &e.Name, &e.Position, &e.Email, &e.Phone, &e.StartDate, &e.Status, &specialties, &e.Schedule.Start, &e.Schedule.End, &e.Salary); err != nil {
		return domain.Employee{}, err
	}
	e.StartDate = e.StartDate.UTC()
	if err := unmarshalJSON(specialties, &e.Specialties); err != nil {
		return domain.Employee{}, err
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 16)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	e, err := scanEmployee(s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) SaveEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if strings.TrimSpace(employee.ID) == "" || strings.TrimSpace(employee.Name) == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, position = EXCLUDED.position, email = EXCLUDED.email,
			phone = EXCLUDED.phone, start_date = EXCLUDED.start_date, status = EXCLUDED.status,
			specialties = EXCLUDED.specialties, schedule_start = EXCLUDED.schedule_start,
			schedule_end = EXCLUDED.schedule_end, salary = EXCLUDED.salary
	`, employee.ID, employee.Name, employee.Position, employee.Email, employee.Phone, employee.StartDate, employee.Status,
		jsonText(employee.Specialties), employee.Schedule.Start, employee.Schedule.End, employee.Salary)
	if err != nil {
		return nil, err
	}
	saved := employee
	return &saved, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return execAffectingOne(ctx, s.db, `DELETE FROM employees WHERE id = $1`, id)
}

const supplierColumns = `id, name, contact_person, email, phone, address, products, payment_terms, status, last_order_date, notes`

func scanSupplier(row interface{ Scan(...any) error }) (domain.Supplier, error) {
	var sup domain.Supplier
	var products []byte
	var lastOrder sql.NullTime
	var notes sql.NullString
	if err := row.Scan(&sup.ID, &sup.Name, &sup.ContactPerson, &sup.Email, &sup.Phone, &sup.Address, &products, &sup.PaymentTerms, &sup.Status, &lastOrder, &notes); err != nil {
		return domain.Supplier{}, err
	}
	if err := unmarshalJSON(products, &sup.Products); err != nil {
		return domain.Supplier{}, err
	}
	sup.LastOrderDate = timePtr(lastOrder)
	sup.Notes = notes.String
	return sup, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	sup, err := scanSupplier(s.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sup, nil
}

func (s *Store) SaveSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if strings.TrimSpace(supplier.ID) == "" || strings.TrimSpace(supplier.Name) == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (`+supplierColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, contact_person = EXCLUDED.contact_person, email = EXCLUDED.email,
			phone = EXCLUDED.phone, address = EXCLUDED.address, products = EXCLUDED.products,
			payment_terms = EXCLUDED.payment_terms, status = EXCLUDED.status,
			last_order_date = EXCLUDED.last_order_date, notes = EXCLUDED.notes
	`, supplier.ID, supplier.Name, supplier.ContactPerson, supplier.Email, supplier.Phone, supplier.Address,
		jsonText(supplier.Products), supplier.PaymentTerms, supplier.Status, nullTime(supplier.LastOrderDate), nullIfEmpty(supplier.Notes))
	if err != nil {
		return nil, err
	}
	saved := supplier
	return &saved, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	return execAffectingOne(ctx, s.db, `DELETE FROM suppliers WHERE id = $1`, id)
}

const orderColumns = `id, status, vehicle, service, service_package, assigned_employee, start_time, end_time, notes, created_at`

func scanOrder(row interface{ Scan(...any) error }) (domain.ServiceOrder, error) {
	var o domain.ServiceOrder
	var vehicle, service, pkg, employee []byte
	var start, end sql.NullTime
	var notes sql.NullString
	if err := row.Scan(&o.ID, &o.Status, &vehicle, &service, &pkg, &employee, &start, &end, &notes, &o.CreatedAt); err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := unmarshalJSON(vehicle, &o.Vehicle); err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := unmarshalJSON(service, &o.Service); err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := unmarshalJSON(pkg, &o.ServicePackage); err != nil {
		return domain.ServiceOrder{}, err
	}
	if len(employee) > 0 {
		var assigned domain.Employee
		if err := unmarshalJSON(employee, &assigned); err != nil {
			return domain.ServiceOrder{}, err
		}
		o.AssignedEmployee = &assigned
	}
	o.StartTime = timePtr(start)
	o.EndTime = timePtr(end)
	o.Notes = notes.String
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, status string) ([]domain.ServiceOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM service_orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at, id
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.ServiceOrder, 0, 32)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.ServiceOrder, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM service_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.ServiceOrder) (*domain.ServiceOrder, error) {
	if strings.TrimSpace(order.ID) == "" {
		return nil, store.ErrValidation
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, order.ID, order.Status, jsonText(order.Vehicle), jsonText(order.Service), jsonText(order.ServicePackage),
		jsonOrNull(order.AssignedEmployee), nullTime(order.StartTime), nullTime(order.EndTime), nullIfEmpty(order.Notes), order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	saved := order
	return &saved, nil
}

func (s *Store) UpdateOrder(ctx context.Context, order domain.ServiceOrder, expectedStatus string) (*domain.ServiceOrder, error) {
	if err := updateOrder(ctx, s.db, order, expectedStatus); err != nil {
		return nil, err
	}
	saved := order
	return &saved, nil
}

func updateOrder(ctx context.Context, q execer, order domain.ServiceOrder, expectedStatus string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE service_orders
		SET status = $2, assigned_employee = $3, start_time = $4, end_time = $5, notes = $6
		WHERE id = $1 AND status = $7
	`, order.ID, order.Status, jsonOrNull(order.AssignedEmployee), nullTime(order.StartTime), nullTime(order.EndTime), nullIfEmpty(order.Notes), expectedStatus)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM service_orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		return store.ErrInvalidState
	}
	return nil
}

const saleColumns = `id, date, items, total, discount, employee_id, type, vehicle, payment_method, service_order_id, customer_id, status`

func scanSale(row interface{ Scan(...any) error }) (domain.Sale, error) {
	var sale domain.Sale
	var items, vehicle []byte
	var employeeID, orderID, customerID sql.NullString
	if err := row.Scan(&sale.ID, &sale.Date, &items, &sale.Total, &sale.Discount, &employeeID, &sale.Type, &vehicle, &sale.PaymentMethod, &orderID, &customerID, &sale.Status); err != nil {
		return domain.Sale{}, err
	}
	if err := unmarshalJSON(items, &sale.Items); err != nil {
		return domain.Sale{}, err
	}
	if len(vehicle) > 0 {
		var v domain.Vehicle
		if err := unmarshalJSON(vehicle, &v); err != nil {
			return domain.Sale{}, err
		}
		sale.Vehicle = &v
	}
	sale.Date = sale.Date.UTC()
	sale.EmployeeID = employeeID.String
	sale.ServiceOrderID = orderID.String
	sale.CustomerID = customerID.String
	return sale, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if strings.TrimSpace(sale.ID) == "" || len(sale.Items) == 0 {
		return nil, store.ErrValidation
	}
	if err := insertSale(ctx, s.db, sale); err != nil {
		return nil, err
	}
	saved := sale
	return &saved, nil
}

// CommitSale runs the order transition, stock decrement and sale insert in one transaction.
func (s *Store) CommitSale(ctx context.Context, commit store.SaleCommit) (*domain.Sale, error) {
	sale := commit.Sale
	if strings.TrimSpace(sale.ID) == "" || len(sale.Items) == 0 {
		return nil, store.ErrValidation
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	if commit.Order != nil {
		if err := updateOrder(ctx, pgTx, *commit.Order, commit.OrderFrom); err != nil {
			return nil, err
		}
	}
	if err := takeStock(ctx, pgTx, commit.Stock); err != nil {
		return nil, err
	}
	if err := insertSale(ctx, pgTx, sale); err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	saved := sale
	return &saved, nil
}

func insertSale(ctx context.Context, q execer, sale domain.Sale) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, sale.ID, sale.Date, jsonText(sale.Items), sale.Total, sale.Discount, nullIfEmpty(sale.EmployeeID), sale.Type,
		jsonOrNull(sale.Vehicle), sale.PaymentMethod, nullIfEmpty(sale.ServiceOrderID), nullIfEmpty(sale.CustomerID), sale.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE date >= $1 AND date < $2
		ORDER BY date, id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) CreateRegister(ctx context.Context, register domain.CashRegister) (*domain.CashRegister, error) {
	if strings.TrimSpace(register.ID) == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_registers (id, status, opened_at, closed_at, initial_amount, current_amount)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, register.ID, register.Status, register.OpenedAt, nullTime(register.ClosedAt), register.InitialAmount, register.CurrentAmount)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	saved := register
	if saved.Transactions == nil {
		saved.Transactions = []domain.CashTransaction{}
	}
	return &saved, nil
}

func (s *Store) GetOpenRegister(ctx context.Context) (*domain.CashRegister, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM cash_registers WHERE status = 'open'`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return s.GetRegister(ctx, id)
}

func (s *Store) GetRegister(ctx context.Context, id string) (*domain.CashRegister, error) {
	var reg domain.CashRegister
	var closedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, opened_at, closed_at, initial_amount, current_amount
		FROM cash_registers
		WHERE id = $1
	`, id).Scan(&reg.ID, &reg.Status, &reg.OpenedAt, &closedAt, &reg.InitialAmount, &reg.CurrentAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	reg.OpenedAt = reg.OpenedAt.UTC()
	reg.ClosedAt = timePtr(closedAt)

	txs, err := s.listCashTransactions(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	reg.Transactions = txs
	return &reg, nil
}

func (s *Store) ListRegisters(ctx context.Context, limit int) ([]domain.CashRegister, error) {
	if limit < 1 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM cash_registers ORDER BY opened_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	registers := make([]domain.CashRegister, 0, len(ids))
	for _, id := range ids {
		reg, err := s.GetRegister(ctx, id)
		if err != nil {
			return nil, err
		}
		registers = append(registers, *reg)
	}
	return registers, nil
}

func (s *Store) SaveRegister(ctx context.Context, register domain.CashRegister, expectedTransactions int) (*domain.CashRegister, error) {
	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var status string
	err = pgTx.QueryRowContext(ctx, `SELECT status FROM cash_registers WHERE id = $1 FOR UPDATE`, register.ID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.RegisterStatusOpen {
		return nil, store.ErrInvalidState
	}

	var stored int
	if err := pgTx.QueryRowContext(ctx, `SELECT count(*) FROM cash_transactions WHERE register_id = $1`, register.ID).Scan(&stored); err != nil {
		return nil, err
	}
	if stored != expectedTransactions || stored > len(register.Transactions) {
		return nil, store.ErrConflict
	}
	for i := stored; i < len(register.Transactions); i++ {
		tx := register.Transactions[i]
		if _, err := pgTx.ExecContext(ctx, `
			INSERT INTO cash_transactions (id, register_id, seq, occurred_at, type, amount, description, payment_method, sale_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, tx.ID, register.ID, i, tx.Timestamp, tx.Type, tx.Amount, tx.Description, tx.PaymentMethod, nullIfEmpty(tx.SaleID)); err != nil {
			if isUniqueViolation(err) {
				return nil, store.ErrConflict
			}
			return nil, err
		}
	}

	if _, err := pgTx.ExecContext(ctx, `
		UPDATE cash_registers SET status = $2, closed_at = $3, current_amount = $4
		WHERE id = $1
	`, register.ID, register.Status, nullTime(register.ClosedAt), register.CurrentAmount); err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	saved := register
	return &saved, nil
}

func (s *Store) listCashTransactions(ctx context.Context, registerID string) ([]domain.CashTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, type, amount, description, payment_method, sale_id
		FROM cash_transactions
		WHERE register_id = $1
		ORDER BY seq
	`, registerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.CashTransaction, 0, 32)
	for rows.Next() {
		var tx domain.CashTransaction
		var saleID sql.NullString
		if err := rows.Scan(&tx.ID, &tx.Timestamp, &tx.Type, &tx.Amount, &tx.Description, &tx.PaymentMethod, &saleID); err != nil {
			return nil, err
		}
		tx.Timestamp = tx.Timestamp.UTC()
		tx.SaleID = saleID.String
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *Store) CreatePromotion(ctx context.Context, promo domain.Promotion) (*domain.Promotion, error) {
	if strings.TrimSpace(promo.ID) == "" || strings.TrimSpace(promo.Message) == "" || len(promo.CustomerIDs) == 0 {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO promotions (id, message, customer_ids, idle_days, sent_at)
		VALUES ($1,$2,$3,$4,$5)
	`, promo.ID, promo.Message, jsonText(promo.CustomerIDs), promo.IdleDays, promo.SentAt)
	if err != nil {
		return nil, err
	}
	saved := promo
	return &saved, nil
}

func (s *Store) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message, customer_ids, idle_days, sent_at
		FROM promotions
		ORDER BY sent_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	promos := make([]domain.Promotion, 0, 16)
	for rows.Next() {
		var p domain.Promotion
		var ids []byte
		if err := rows.Scan(&p.ID, &p.Message, &ids, &p.IdleDays, &p.SentAt); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(ids, &p.CustomerIDs); err != nil {
			return nil, err
		}
		p.SentAt = p.SentAt.UTC()
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, duration, level, instructor, rating, enrolled, image
		FROM courses
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]domain.Course, 0, 8)
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Duration, &c.Level, &c.Instructor, &c.Rating, &c.Enrolled, &c.Image); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (s *Store) GetCompany(ctx context.Context) (*domain.Company, error) {
	var c domain.Company
	err := s.db.QueryRowContext(ctx, `
		SELECT name, tax_id, address, phone, email FROM company WHERE id = 1
	`).Scan(&c.Name, &c.TaxID, &c.Address, &c.Phone, &c.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.Company{}, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveCompany(ctx context.Context, company domain.Company) (*domain.Company, error) {
	if strings.TrimSpace(company.Name) == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company (id, name, tax_id, address, phone, email)
		VALUES (1,$1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, tax_id = EXCLUDED.tax_id, address = EXCLUDED.address,
			phone = EXCLUDED.phone, email = EXCLUDED.email
	`, company.Name, company.TaxID, company.Address, company.Phone, company.Email)
	if err != nil {
		return nil, err
	}
	saved := company
	return &saved, nil
}

func (s *Store) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address, phone, manager FROM branches ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]domain.Branch, 0, 8)
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Manager); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (s *Store) SaveBranch(ctx context.Context, branch domain.Branch) (*domain.Branch, error) {
	if strings.TrimSpace(branch.ID) == "" || strings.TrimSpace(branch.Name) == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (id, name, address, phone, manager)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, phone = EXCLUDED.phone, manager = EXCLUDED.manager
	`, branch.ID, branch.Name, branch.Address, branch.Phone, branch.Manager)
	if err != nil {
		return nil, err
	}
	saved := branch
	return &saved, nil
}

func (s *Store) DeleteBranch(ctx context.Context, id string) error {
	return execAffectingOne(ctx, s.db, `DELETE FROM branches WHERE id = $1`, id)
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.PasswordHash) == "" {
		return store.ErrValidation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, name, email, role, password_hash, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, username, user.Name, user.Email, user.Role, user.PasswordHash, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, name, email, role, password_hash, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) SetUserActive(ctx context.Context, username string, active bool) error {
	return execAffectingOne(ctx, s.db, `UPDATE users SET active = $2 WHERE username = $1`, strings.ToLower(strings.TrimSpace(username)), active)
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if strings.TrimSpace(entry.ID) == "" || strings.TrimSpace(entry.Action) == "" {
		return store.ErrValidation
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.Actor, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func execAffectingOne(ctx context.Context, db *sql.DB, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func plateKey(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// jsonText encodes v for a JSONB parameter. Nil slices become [].
func jsonText(v any) string {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return "[]"
	}
	return string(raw)
}

func jsonOrNull[T any](v *T) any {
	if v == nil {
		return nil
	}
	return jsonText(v)
}

func unmarshalJSON(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func timePtr(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	at := val.Time.UTC()
	return &at
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
