package seed

import (
	"slices"
	"time"

	"lubricentro/backend/internal/domain"
)

// Demo data loaded into empty stores.

func Products() []domain.Product {
	cars := []string{"Toyota Corolla", "Honda Civic"}
	corolla := []string{"Toyota Corolla"}
	return []domain.Product{
		{ID: "1", Name: "Aceite Sintético 5W-30", Brand: "Shell", Type: domain.ProductTypeOil, Price: 8500, Stock: 24, Quality: domain.QualityStandard, Compatibility: slices.Clone(cars)},
		{ID: "2", Name: "Aceite Sintético 5W-30 Premium", Brand: "Mobil 1", Type: domain.ProductTypeOil, Price: 12000, Stock: 15, Quality: domain.QualityPremium, Compatibility: slices.Clone(cars)},
		{ID: "3", Name: "Aceite Semi-Sintético 5W-30", Brand: "Castrol", Type: domain.ProductTypeOil, Price: 6500, Stock: 30, Quality: domain.QualityEconomic, Compatibility: slices.Clone(cars)},
		{ID: "4", Name: "Filtro de Aceite Original", Brand: "Toyota", Type: domain.ProductTypeOilFilter, Price: 3500, Stock: 20, Quality: domain.QualityPremium, Compatibility: slices.Clone(corolla)},
		{ID: "5", Name: "Filtro de Aceite", Brand: "Mann", Type: domain.ProductTypeOilFilter, Price: 2500, Stock: 25, Quality: domain.QualityStandard, Compatibility: slices.Clone(corolla)},
		{ID: "6", Name: "Filtro de Aceite Económico", Brand: "Wega", Type: domain.ProductTypeOilFilter, Price: 1800, Stock: 30, Quality: domain.QualityEconomic, Compatibility: slices.Clone(corolla)},
	}
}

func Services() []domain.Service {
	return []domain.Service{
		{
			ID:          "1",
			Name:        "Service Completo",
			Description: "Servicio completo de mantenimiento",
			Price:       25000,
			Duration:    120,
			Type:        domain.ServiceTypeFull,
			Includes: []string{
				"Cambio de aceite y filtro",
				"Cambio de filtro de aire",
				"Cambio de filtro de habitáculo",
				"Revisión de frenos",
				"Revisión de suspensión",
				"Diagnóstico computarizado",
			},
		},
		{
			ID:          "2",
			Name:        "Cambio de Aceite",
			Description: "Cambio de aceite y filtro",
			Price:       12000,
			Duration:    45,
			Type:        domain.ServiceTypeOil,
			Includes:    []string{"Cambio de aceite", "Cambio de filtro de aceite", "Revisión de niveles"},
		},
	}
}

func Vehicles() []domain.Vehicle {
	return []domain.Vehicle{
		{LicensePlate: "ABC123", Brand: "Toyota", Model: "Corolla", Year: "2020", EngineType: "1.8L", OilType: "5W-30"},
		{LicensePlate: "XYZ789", Brand: "Volkswagen", Model: "Golf", Year: "2019", EngineType: "1.4T", OilType: "5W-40"},
	}
}

func Courses() []domain.Course {
	return []domain.Course{
		{
			ID:          "course-1",
			Title:       "Fundamentos de Lubricación",
			Description: "Aprende los conceptos básicos de lubricación y mantenimiento de vehículos.",
			Duration:    "2 horas",
			Level:       "Básico",
			Instructor:  "Carlos Rodríguez",
			Rating:      4.8,
			Enrolled:    156,
			Image:       "https://images.unsplash.com/photo-1487754180451-c456f719a1fc?auto=format&fit=crop&q=80&w=400",
		},
		{
			ID:          "course-2",
			Title:       "Diagnóstico Avanzado",
			Description: "Técnicas avanzadas de diagnóstico y solución de problemas.",
			Duration:    "4 horas",
			Level:       "Avanzado",
			Instructor:  "Ana Martínez",
			Rating:      4.9,
			Enrolled:    89,
			Image:       "https://images.unsplash.com/photo-1504222490345-c075b6008014?auto=format&fit=crop&q=80&w=400",
		},
	}
}

func Customers(now time.Time) []domain.Customer {
	vehicles := Vehicles()
	return []domain.Customer{
		{
			ID:              "cus-1",
			Name:            "Juan Pérez",
			Phone:           "+54911234567",
			LastServiceDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			Vehicle:         vehicles[0],
		},
		{
			ID:              "cus-2",
			Name:            "Lucía Fernández",
			Phone:           "+54911765432",
			LastServiceDate: now.AddDate(0, 0, -20),
			Vehicle:         vehicles[1],
		},
	}
}

func Employees() []domain.Employee {
	return []domain.Employee{{
		ID:          "emp-1",
		Name:        "Juan Pérez",
		Position:    "Mecánico Senior",
		Email:       "juan@example.com",
		Phone:       "+54911234567",
		StartDate:   time.Date(2022, time.January, 15, 0, 0, 0, 0, time.UTC),
		Status:      domain.StatusActive,
		Specialties: []string{"Cambio de aceite", "Diagnóstico computarizado"},
		Schedule:    domain.Schedule{Start: "08:00", End: "17:00"},
		Salary:      150000,
	}}
}

func Suppliers() []domain.Supplier {
	lastOrder := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)
	return []domain.Supplier{{
		ID:            "sup-1",
		Name:          "AutoPartes SA",
		ContactPerson: "María González",
		Email:         "maria@autopartes.com",
		Phone:         "+54911234567",
		Address:       "Av. Corrientes 1234, CABA",
		Products:      []string{"Aceites", "Filtros", "Lubricantes"},
		PaymentTerms:  "30 días",
		Status:        domain.StatusActive,
		LastOrderDate: &lastOrder,
		Notes:         "Proveedor principal de aceites y filtros",
	}}
}

func Company() domain.Company {
	return domain.Company{Name: "Lubricentro"}
}
