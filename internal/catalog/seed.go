package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"storefront-service/pkg/logkey"
)

const (
	// UnitPriceAmount is the fixed price of every revision pack, in cents.
	UnitPriceAmount int64 = 699
	UnitCurrency          = "usd"

	youtubeChannel = "https://www.youtube.com/@ReviseDirect"
	podbeanChannel = "https://revisedirect.podbean.com"
)

// CourseUnit is one sellable revision pack of a course.
type CourseUnit struct {
	Number      int
	Title       string
	Description string
	Available   bool
}

// Course groups the units of one syllabus.
type Course struct {
	Slug   string
	Code   string
	Name   string
	Prefix string
	Units  []CourseUnit
}

func (u CourseUnit) ProductName(c Course) string {
	return fmt.Sprintf("%s Unit %d: %s", c.Prefix, u.Number, u.Title)
}

// Courses is the fixed storefront catalog.
var Courses = []Course{
	{
		Slug: "igcse", Code: "0413", Name: "Cambridge IGCSE Physical Education", Prefix: "IGCSE PE",
		Units: []CourseUnit{
			{Number: 1, Title: "Anatomy and Physiology", Available: true,
				Description: "Complete revision pack including detailed infographics on body systems, skeletal structure, muscular system, and cardiovascular system. Includes exam-style questions with full mark scheme."},
			{Number: 2, Title: "Health, Fitness and Training",
				Description: "Comprehensive coverage of health components, fitness testing, training methods, and principles of training. Includes exam questions and mark scheme."},
			{Number: 3, Title: "Skill Acquisition and Psychology",
				Description: "Covers classification of skills, learning theories, motivation, arousal, and mental preparation. Includes exam-style questions with mark scheme."},
			{Number: 4, Title: "Social, Cultural and Ethical Influences",
				Description: "Explores social factors affecting participation, the role of media, drugs in sport, and ethical considerations. Includes exam questions and mark scheme."},
		},
	},
	{
		Slug: "as-level", Code: "8386", Name: "Cambridge International AS Level Sport & Physical Education", Prefix: "AS Level SPE",
		Units: []CourseUnit{
			{Number: 1, Title: "Joints, Movements and Muscles", Available: true,
				Description: "Detailed coverage of joint types, movement analysis, muscle groups, and their functions during physical activity. Includes exam questions and mark scheme."},
			{Number: 2, Title: "Biomechanics", Available: true,
				Description: "Comprehensive analysis of motion, forces, levers, and their application to sporting performance. Includes exam-style questions with mark scheme."},
			{Number: 3, Title: "The Cardiovascular System", Available: true,
				Description: "In-depth coverage of heart anatomy, cardiac cycle, blood flow, and cardiovascular responses to exercise. Includes exam questions and mark scheme."},
			{Number: 4, Title: "The Respiratory System",
				Description: "Covers lung structure, breathing mechanics, gas exchange, and respiratory responses during exercise. Includes exam questions and mark scheme."},
			{Number: 5, Title: "Skill and Ability",
				Description: "Explores types of skills, abilities, classification systems, and skill development. Includes exam-style questions with mark scheme."},
			{Number: 6, Title: "Theories of Learning",
				Description: "Covers learning theories, stages of learning, and factors affecting skill acquisition. Includes exam questions and mark scheme."},
			{Number: 7, Title: "Information Processing",
				Description: "Detailed coverage of information processing models, memory, decision making, and reaction time. Includes exam questions and mark scheme."},
			{Number: 8, Title: "Practice and Learning",
				Description: "Covers types of practice, feedback, guidance, and transfer of learning. Includes exam-style questions with mark scheme."},
			{Number: 9, Title: "Sociocultural Issues",
				Description: "Explores sociocultural factors affecting participation and performance in sport. Includes exam questions and mark scheme."},
			{Number: 10, Title: "Ethics and Deviance",
				Description: "Covers ethical issues in sport, sportsmanship, gamesmanship, and deviance. Includes exam-style questions with mark scheme."},
			{Number: 11, Title: "Commercialisation and the Media",
				Description: "Explores the relationship between sport, media, and commercialisation. Includes exam questions and mark scheme."},
			{Number: 12, Title: "The Use of Technology",
				Description: "Covers the use of technology in sport for performance enhancement, analysis, and officiating. Includes exam questions and mark scheme."},
		},
	},
}

// NewProduct is the input for creating a product at the provider.
type NewProduct struct {
	Name        string
	Description string
	Metadata    map[string]string
}

// NewPrice is the input for creating a one-time price at the provider.
type NewPrice struct {
	ProductID  string
	UnitAmount int64
	Currency   string
}

// ProviderWriter creates catalog records at the provider.
type ProviderWriter interface {
	FindProductByName(ctx context.Context, name string) (Product, bool, error)
	ListProductPrices(ctx context.Context, productID string) ([]Price, error)
	CreateProduct(ctx context.Context, p NewProduct) (Product, error)
	CreatePrice(ctx context.Context, p NewPrice) (Price, error)
}

// SeedResult counts what a seeding run did.
type SeedResult struct {
	Created int
	// Repaired counts existing products that had no active price and got one.
	Repaired int
	Skipped  int
	Failed   int
}

type Seeder struct {
	writer ProviderWriter
}

func NewSeeder(writer ProviderWriter) (*Seeder, error) {
	if writer == nil {
		return nil, fmt.Errorf("provider writer is nil")
	}
	return &Seeder{writer: writer}, nil
}

// Seed creates every course unit that does not exist yet, one product and one
// price each. An existing product without an active price gets its price. A
// failure on one unit is logged and does not stop the run.
func (s *Seeder) Seed(ctx context.Context, courses []Course) SeedResult {
	var res SeedResult
	for _, c := range courses {
		for _, u := range c.Units {
			name := u.ProductName(c)
			existing, exists, err := s.writer.FindProductByName(ctx, name)
			if err != nil {
				slog.Error("error searching product", slog.String("Name", name), slog.String(logkey.ERROR, err.Error()))
				res.Failed++
				continue
			}
			if exists {
				s.ensurePrice(ctx, existing, &res)
				continue
			}

			product, err := s.writer.CreateProduct(ctx, NewProduct{
				Name:        name,
				Description: u.Description,
				Metadata: map[string]string{
					MetaCourse:     c.Slug,
					MetaUnitNumber: strconv.Itoa(u.Number),
					MetaAvailable:  strconv.FormatBool(u.Available),
					MetaType:       "revision-pack",
					MetaYoutubeURL: youtubeChannel,
					MetaPodbeanURL: podbeanChannel,
				},
			})
			if err != nil {
				slog.Error("error creating product", slog.String("Name", name), slog.String(logkey.ERROR, err.Error()))
				res.Failed++
				continue
			}

			price, err := s.createUnitPrice(ctx, product.ID)
			if err != nil {
				slog.Error("error creating price", slog.String(logkey.ProductID, product.ID), slog.String(logkey.ERROR, err.Error()))
				res.Failed++
				continue
			}

			slog.Info("created product", slog.String(logkey.ProductID, product.ID), slog.String(logkey.PriceID, price.ID),
				slog.String("Amount", FormatAmount(price.UnitAmount, price.Currency)))
			res.Created++
		}
	}
	return res
}

func (s *Seeder) ensurePrice(ctx context.Context, product Product, res *SeedResult) {
	prices, err := s.writer.ListProductPrices(ctx, product.ID)
	if err != nil {
		slog.Error("error listing prices", slog.String(logkey.ProductID, product.ID), slog.String(logkey.ERROR, err.Error()))
		res.Failed++
		return
	}
	for _, p := range prices {
		if p.Active {
			slog.Info("product already exists", slog.String("Name", product.Name))
			res.Skipped++
			return
		}
	}

	price, err := s.createUnitPrice(ctx, product.ID)
	if err != nil {
		slog.Error("error creating price", slog.String(logkey.ProductID, product.ID), slog.String(logkey.ERROR, err.Error()))
		res.Failed++
		return
	}
	slog.Info("added missing price", slog.String(logkey.ProductID, product.ID), slog.String(logkey.PriceID, price.ID))
	res.Repaired++
}

func (s *Seeder) createUnitPrice(ctx context.Context, productID string) (Price, error) {
	return s.writer.CreatePrice(ctx, NewPrice{ProductID: productID, UnitAmount: UnitPriceAmount, Currency: UnitCurrency})
}
