package modules

import "github.com/NUbem000/NubemERP/internal/users"

// DefaultCatalog returns the built-in module catalog installed by the
// seed operation.
func DefaultCatalog() []Module {
	return []Module{
		{
			Slug:        "invoicing",
			Name:        "Facturación",
			Description: "Sistema completo de facturación electrónica con cumplimiento normativo",
			Icon:        "Calculator",
			Color:       "bg-blue-500",
			Category:    CategoryFinance,
			Usage:       Usage{Percentage: 95},
			Features: []Feature{
				{ID: "electronic-invoice", Name: "Facturación electrónica", IsCore: true, RequiredPlan: users.PlanFree},
				{ID: "templates", Name: "100+ plantillas", IsCore: true, RequiredPlan: users.PlanStarter},
				{ID: "recurring", Name: "Facturas recurrentes", RequiredPlan: users.PlanProfessional},
			},
			Status:    StatusActive,
			IsEnabled: true,
			Order:     1,
		},
		{
			Slug:        "accounting",
			Name:        "Contabilidad",
			Description: "Automatización del 95% de tareas contables con IA",
			Icon:        "BarChart3",
			Color:       "bg-green-500",
			Category:    CategoryFinance,
			Usage:       Usage{Percentage: 88},
			Features: []Feature{
				{ID: "automation", Name: "Automatización IA", IsCore: true, RequiredPlan: users.PlanStarter},
				{ID: "bank-sync", Name: "Sincronización bancaria", IsCore: true, RequiredPlan: users.PlanStarter},
				{ID: "tax-models", Name: "Modelos fiscales", RequiredPlan: users.PlanProfessional},
			},
			Status:    StatusActive,
			IsEnabled: true,
			Order:     2,
		},
		{
			Slug:        "projects",
			Name:        "Proyectos",
			Description: "Gestión profesional de proyectos con metodologías ágiles",
			Icon:        "FolderKanban",
			Color:       "bg-purple-500",
			Category:    CategoryOperations,
			Usage:       Usage{Percentage: 75},
			Features: []Feature{
				{ID: "kanban", Name: "Tableros Kanban", IsCore: true, RequiredPlan: users.PlanFree},
				{ID: "gantt", Name: "Diagramas Gantt", RequiredPlan: users.PlanProfessional},
				{ID: "time-tracking", Name: "Control de tiempo", IsCore: true, RequiredPlan: users.PlanStarter},
			},
			Status:    StatusActive,
			IsEnabled: true,
			Order:     3,
		},
		{
			Slug:        "inventory",
			Name:        "Inventario",
			Description: "Control total del stock en tiempo real",
			Icon:        "Package",
			Color:       "bg-orange-500",
			Category:    CategoryOperations,
			Usage:       Usage{Percentage: 82},
			Features: []Feature{
				{ID: "multi-warehouse", Name: "Multialmacén", IsCore: true, RequiredPlan: users.PlanProfessional},
				{ID: "variants", Name: "Variantes de producto", IsCore: true, RequiredPlan: users.PlanStarter},
				{ID: "serial-numbers", Name: "Números de serie", RequiredPlan: users.PlanProfessional},
			},
			Status:    StatusActive,
			IsEnabled: true,
			Order:     4,
		},
		{
			Slug:        "hr",
			Name:        "Recursos Humanos",
			Description: "Gestión integral del equipo y control horario",
			Icon:        "Users",
			Color:       "bg-red-500",
			Category:    CategoryHR,
			Usage:       Usage{Percentage: 70},
			Features: []Feature{
				{ID: "employee-database", Name: "Base de datos empleados", IsCore: true, RequiredPlan: users.PlanFree},
				{ID: "time-control", Name: "Control horario", IsCore: true, RequiredPlan: users.PlanStarter},
				{ID: "payroll", Name: "Nóminas", RequiredPlan: users.PlanProfessional},
			},
			Status:    StatusActive,
			IsEnabled: true,
			Order:     5,
		},
		{
			Slug:        "crm",
			Name:        "CRM",
			Description: "Gestión inteligente de relaciones con clientes",
			Icon:        "UserCheck",
			Color:       "bg-indigo-500",
			Category:    CategorySales,
			Usage:       Usage{Percentage: 85},
			Features: []Feature{
				{ID: "sales-pipeline", Name: "Embudo de ventas", IsCore: true, RequiredPlan: users.PlanFree},
				{ID: "lead-scoring", Name: "Puntuación de leads", RequiredPlan: users.PlanProfessional},
				{ID: "email-automation", Name: "Automatización email", RequiredPlan: users.PlanProfessional},
			},
			Status:    StatusActive,
			IsEnabled: true,
			Order:     6,
		},
		{
			Slug:        "pos",
			Name:        "TPV",
			Description: "Terminal punto de venta omnicanal",
			Icon:        "CreditCard",
			Color:       "bg-yellow-500",
			Category:    CategorySales,
			Usage:       Usage{Percentage: 65},
			Features: []Feature{
				{ID: "tablet-pos", Name: "TPV en tablet", IsCore: true, RequiredPlan: users.PlanStarter},
				{ID: "offline-mode", Name: "Modo offline", IsCore: true, RequiredPlan: users.PlanProfessional},
				{ID: "multi-payment", Name: "Múltiples pagos", IsCore: true, RequiredPlan: users.PlanStarter},
			},
			Status:    StatusActive,
			IsEnabled: true,
			Order:     7,
		},
		{
			Slug:        "system",
			Name:        "Sistema",
			Description: "Infraestructura y administración avanzada",
			Icon:        "Settings",
			Color:       "bg-gray-500",
			Category:    CategorySystem,
			Usage:       Usage{Percentage: 90},
			Features: []Feature{
				{ID: "user-management", Name: "Gestión usuarios", IsCore: true, RequiredPlan: users.PlanFree},
				{ID: "api-access", Name: "Acceso API", RequiredPlan: users.PlanProfessional},
				{ID: "multi-company", Name: "Multiempresa", RequiredPlan: users.PlanEnterprise},
			},
			Status:    StatusActive,
			IsEnabled: true,
			Order:     8,
		},
	}
}
