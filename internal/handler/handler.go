package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/repository"
)

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	translator    ut.Translator
	notifyChannel *amqp.Channel
	redisClient   *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, notifyCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		notifyChannel: notifyCh,
		redisClient:   rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.With(h.myInfo).Get("/my-info", h.GetMyInfo)

		adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})

		r.Route("/rooms", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreateRoom)
			r.Get("/", h.GetAllRooms)
			r.With(adminOnly).Delete("/{id}", h.DeleteRoom)
		})

		r.Route("/time-slots", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreateTimeSlot)
			r.Get("/", h.GetAllTimeSlots)
			r.With(adminOnly).Delete("/{id}", h.DeleteTimeSlot)
		})

		r.Route("/facilitators", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreateFacilitator)
			r.Get("/", h.GetAllFacilitators)
			r.With(adminOnly).Delete("/{id}", h.DeleteFacilitator)
		})

		r.Route("/activities", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreateActivity)
			r.Get("/", h.GetAllActivities)
			r.With(adminOnly).Delete("/{id}", h.DeleteActivity)
		})

		r.Route("/scheduling-results", func(r chi.Router) {
			r.Get("/", h.GetAllSchedulingResults)
			r.Get("/latest", h.GetLatestSchedulingResult)
			r.With(adminOnly).Post("/generate", h.GenerateSchedulingResult)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.schedulingResult)
				r.Get("/", h.GetSchedulingResult)
				r.Get("/table.csv", h.ExportSchedulingResultTable)
				r.Get("/by-time-slot", h.GetSchedulingResultByTimeSlot)
			})
		})
	})
}
