package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authsvc "savanna-backend/internal/application/auth"
	"savanna-backend/internal/application/emails"
	importsvc "savanna-backend/internal/application/imports"
	leadsvc "savanna-backend/internal/application/leads"
	listsvc "savanna-backend/internal/application/listings"
	"savanna-backend/internal/application/live"
	uploadsvc "savanna-backend/internal/application/uploads"
	"savanna-backend/internal/config"
	"savanna-backend/internal/infrastructure/database"
	authhandler "savanna-backend/internal/interfaces/handlers/auth"
	healthhandler "savanna-backend/internal/interfaces/handlers/health"
	importhandler "savanna-backend/internal/interfaces/handlers/imports"
	leadhandler "savanna-backend/internal/interfaces/handlers/leads"
	listhandler "savanna-backend/internal/interfaces/handlers/listings"
	uploadhandler "savanna-backend/internal/interfaces/handlers/uploads"
	"savanna-backend/internal/middleware"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all routes and middleware wired.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		StorageURL:     cfg.SupabaseURL,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
		hh.DB = &gormDBPinger{db: db}
	}

	var finder authsvc.OperatorFinder
	if db != nil {
		finder = &authsvc.GormOperatorFinder{DB: db}
	}
	ah := authhandler.NewHandlers(finder, rdb, sessionCfg)
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db != nil {
		bus := &live.Bus{Rdb: rdb}

		var mailer leadsvc.LeadMailer
		if cfg.SendinblueAPIKey != "" {
			mailer = &emails.BrevoClient{
				APIKey:   cfg.SendinblueAPIKey,
				MailFrom: cfg.MailFrom,
				NotifyTo: cfg.LeadNotifyEmail,
			}
		}

		ls := &listsvc.Service{DB: db, Bus: bus}
		lh := listhandler.NewHandlers(ls, bus)
		app.Get("/api/v1/listings/get-active-listings", lh.GetActiveListings)
		app.Get("/api/v1/listings/get-listing/:listing_id", lh.GetListingByID)
		app.Get("/api/v1/listings/live", lh.Live)

		lg := app.Group("/api/v1/listings", middleware.RequireAuth())
		lg.Get("/get-all-listings", lh.GetAllListings)
		lg.Get("/get-listings-by-status/:status", lh.GetListingsByStatus)
		lg.Post("/create-listing", lh.CreateListing)
		lg.Patch("/update-listing/:listing_id", lh.UpdateListing)
		lg.Delete("/delete-listing/:listing_id", lh.DeleteListing)

		is := &importsvc.Service{DB: db, Bus: bus}
		ih := importhandler.NewHandlers(is)
		lg.Post("/import-csv", ih.ImportCSV)

		ds := &leadsvc.Service{DB: db, Bus: bus, Mailer: mailer}
		dh := leadhandler.NewHandlers(ds, bus)
		app.Post("/api/v1/leads/submit", dh.SubmitLead)

		dg := app.Group("/api/v1/leads", middleware.RequireAuth())
		dg.Get("/get-all-leads", dh.GetAllLeads)
		dg.Get("/get-leads-by-status/:status", dh.GetLeadsByStatus)
		dg.Get("/live", dh.Live)
		dg.Patch("/update-status/:lead_id", dh.UpdateLeadStatus)

		sc := &uploadsvc.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
		us := &uploadsvc.Service{Client: sc, Bucket: cfg.SupabaseBucket}
		uh := uploadhandler.NewHandlers(us)
		app.Get("/api/v1/files/resolve/:ref", uh.Resolve)
		app.Post("/api/v1/uploads/listing-image", middleware.RequireAuth(), uh.CreateUploadSlot)
	}

	return app, db, rdb, nil
}
