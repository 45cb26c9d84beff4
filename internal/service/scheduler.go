package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"phishguard/internal/model"
	"phishguard/internal/storage"
	"phishguard/internal/utils"
)

// Scheduler runs the operational background jobs. Scans themselves are
// strictly user-triggered; the only recurring work is keeping the scoring
// backend's health status fresh for the dashboard badge.
type Scheduler struct {
	Cron       *cron.Cron
	Storage    *storage.Storage
	Classifier Classifier
	Spec       string
}

func NewScheduler(s *storage.Storage, c Classifier, spec string) *Scheduler {
	if spec == "" {
		spec = "@every 1m"
	}
	return &Scheduler{
		Cron:       cron.New(),
		Storage:    s,
		Classifier: c,
		Spec:       spec,
	}
}

func (s *Scheduler) Start() {
	if _, err := s.Cron.AddFunc(s.Spec, s.RunHealthCheck); err != nil {
		utils.Log.Error("scheduler: bad health interval", utils.Field("spec", s.Spec), utils.Field("error", err.Error()))
		return
	}
	s.Cron.Start()
	utils.Log.Info("scheduler started", utils.Field("health_interval", s.Spec))

	// Seed the status so the dashboard has something before the first tick.
	go s.RunHealthCheck()
}

func (s *Scheduler) Stop() {
	s.Cron.Stop()
}

// RunHealthCheck pings the scoring backend and caches the observation.
func (s *Scheduler) RunHealthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := s.Classifier.Health(ctx)

	status := model.BackendStatus{
		Reachable: err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		status.Error = err.Error()
		utils.Log.Warn("scoring backend unhealthy", utils.Field("error", err.Error()))
	}

	if err := s.Storage.SetBackendStatus(ctx, status); err != nil {
		utils.Log.Error("failed to cache backend status", utils.Field("error", err.Error()))
	}
}
