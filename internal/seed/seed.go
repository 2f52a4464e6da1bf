package seed

import (
	"context"
	"log"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SeedData loads the demo users, projects and equipment catalog used in
// development environments. Skipped when the database already has users.
func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	users, _ := repos.UserRepo.FindAll(ctx)
	if len(users) > 0 {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] Creating demo data...")

	// ============================================
	// USERS
	// ============================================
	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	str := func(s string) *string { return &s }

	carlos := &repository.User{
		Email:    "carlos.admin@solarflow.com.br",
		Password: string(password),
		Name:     "Carlos Admin",
		Role:     types.RoleAdmin,
		Avatar:   str("https://i.pravatar.cc/150?u=3"),
		Phone:    str("11977665544"),
		Status:   "online",
	}
	repos.UserRepo.Create(ctx, carlos)

	maria := &repository.User{
		Email:    "maria.engenheira@solarflow.com.br",
		Password: string(password),
		Name:     "Maria Engenheira",
		Role:     types.RoleEngenharia,
		Avatar:   str("https://i.pravatar.cc/150?u=2"),
		Phone:    str("11988776655"),
		Status:   "online",
	}
	repos.UserRepo.Create(ctx, maria)

	joao := &repository.User{
		Email:    "joao.tecnico@solarflow.com.br",
		Password: string(password),
		Name:     "João Técnico",
		Role:     types.RoleIntegrador,
		Avatar:   str("https://i.pravatar.cc/150?u=1"),
		Phone:    str("11999887766"),
		Status:   "online",
	}
	repos.UserRepo.Create(ctx, joao)

	carlosCampo := &repository.User{
		Email:    "carlos.campo@solarflow.com.br",
		Password: string(password),
		Name:     "Carlos Campo",
		Role:     types.RoleIntegrador,
		Avatar:   str("https://i.pravatar.cc/150?u=4"),
		Phone:    str("11966554433"),
		Status:   "offline",
	}
	repos.UserRepo.Create(ctx, carlosCampo)

	// ============================================
	// PROJECTS
	// ============================================
	date := func(s string) *time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
		return &d
	}

	pendente := types.ConcessionariaPendente

	projects := []*repository.Project{
		{
			ClientName:          "João Silva",
			Address:             "Rua das Flores, 123 - Campinas, SP",
			Status:              types.StatusVistoria,
			PowerKwp:            decimal.NewFromFloat(4.5),
			EstimatedProduction: decimal.NewFromFloat(550),
			StartDate:           date("2023-10-15"),
			Notes:               "Cliente quer o inversor na garagem.",
			AssignedIntegrator:  &joao.Name,
		},
		{
			ClientName:          "Fazenda Santa Maria",
			Address:             "Estrada Rural KM 12 - Piracicaba, SP",
			Status:              types.StatusAguardandoAnalise,
			PowerKwp:            decimal.NewFromFloat(75.0),
			EstimatedProduction: decimal.NewFromFloat(9200),
			StartDate:           date("2023-09-20"),
			Notes:               "Vistoria realizada ontem por campo.",
			AssignedIntegrator:  &carlosCampo.Name,
			SurveyData: &repository.SurveyData{
				Address:                    "Estrada Rural KM 12 - Piracicaba, SP",
				RoofType:                   "Solo",
				RoofOrientation:            "Norte",
				Inclination:                15,
				RoofCondition:              "Bom",
				AverageConsumption:         8800,
				ContractedDemand:           70,
				ConnectionType:             "Trifásico",
				Voltage:                    "380V",
				BreakerCurrent:             200,
				PanelLocation:              "Sede da fazenda",
				ShadingIssues:              "Sem sombreamento relevante",
				AccessEase:                 "Fácil, acesso por estrada de terra",
				SafetyConditions:           "Boas",
				HasElectricalProject:       true,
				HasPropertyDeed:            true,
				ExistingEquipmentCondition: "Não há",
				StructureReusePossible:     false,
				Photos:                     []string{"fazenda-01.jpg", "fazenda-02.jpg", "fazenda-03.jpg"},
			},
		},
		{
			ClientName:          "Padaria do Sol",
			Address:             "Av. Brasil, 500 - Americana, SP",
			Status:              types.StatusInstalacao,
			PowerKwp:            decimal.NewFromFloat(12.0),
			EstimatedProduction: decimal.NewFromFloat(1450),
			StartDate:           date("2023-10-01"),
			Notes:               "Requer reforço estrutural no telhado.",
		},
		{
			ClientName:          "Condomínio Alpha",
			Address:             "Al. Rio Negro, 200 - Barueri, SP",
			Status:              types.StatusAnalise,
			PowerKwp:            decimal.NewFromFloat(150.0),
			EstimatedProduction: decimal.NewFromFloat(18500),
			StartDate:           date("2023-11-05"),
			Notes:               "Análise de viabilidade técnica em andamento.",
		},
		{
			ClientName:           "Mercado Central",
			Address:              "Praça da Matriz, 10 - Limeira, SP",
			Status:               types.StatusSubmissao,
			PowerKwp:             decimal.NewFromFloat(22.5),
			EstimatedProduction:  decimal.NewFromFloat(2800),
			StartDate:            date("2023-11-10"),
			Notes:                "Aguardando aprovação da CPFL.",
			ConcessionariaStatus: &pendente,
		},
	}

	for _, p := range projects {
		if err := repos.ProjectRepo.Create(ctx, p); err != nil {
			log.Printf("[Seed] Failed to create project %s: %v", p.ClientName, err)
		}
	}

	// ============================================
	// EQUIPMENT CATALOG
	// ============================================
	equipment := []*repository.Equipment{
		{
			Name:        "Canadian Solar HiKu6 550W",
			Type:        types.EquipmentModulo,
			Description: "Módulo monocristalino de alta eficiência",
			Specs: map[string]interface{}{
				"potencia":   "550W",
				"eficiencia": "21.3%",
				"garantia":   "12 anos produto / 25 anos performance",
			},
		},
		{
			Name:        "Growatt MID 15KTL3-X",
			Type:        types.EquipmentInversor,
			Description: "Inversor trifásico 15kW com duas MPPTs",
			Specs: map[string]interface{}{
				"potencia": "15kW",
				"tensao":   "380V",
				"mppts":    2,
			},
		},
		{
			Name:        "Estrutura Solar Group Telha Cerâmica",
			Type:        types.EquipmentEstrutura,
			Description: "Kit de fixação para telhado cerâmico, 10 módulos",
		},
		{
			Name:        "String Box Clamper 1040 DPS",
			Type:        types.EquipmentProtecao,
			Description: "Proteção CC com DPS classe II",
		},
	}

	for _, e := range equipment {
		if err := repos.EquipmentRepo.Create(ctx, e); err != nil {
			log.Printf("[Seed] Failed to create equipment %s: %v", e.Name, err)
		}
	}

	log.Println("[Seed] Demo data created")
}
