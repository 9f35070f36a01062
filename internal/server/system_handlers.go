package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/civicgrid/victory/internal/database"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/scheduler"
)

// StatusCounter reports path-to-victory records per status.
type StatusCounter interface {
	CountByStatus() (map[domain.P2VStatus]int, error)
}

// SystemHandlers serves process, storage and job status.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	counter   StatusCounter
	startedAt time.Time

	mu   sync.RWMutex
	jobs map[string]scheduler.Job
}

// DBInfo describes one database in the status response.
type DBInfo struct {
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	SizeMB  float64 `json:"size_mb"`
	Healthy bool    `json:"healthy"`
	Error   string  `json:"error,omitempty"`
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	CPUPercent    float64        `json:"cpu_percent"`
	MemoryPercent float64        `json:"memory_percent"`
	DiskPercent   float64        `json:"disk_percent"`
	Databases     []DBInfo       `json:"databases"`
	Records       map[string]int `json:"records"`
	LastChecked   string         `json:"last_checked"`
}

// NewSystemHandlers creates system handlers. counter may be nil.
func NewSystemHandlers(log zerolog.Logger, dataDir string, counter StatusCounter, databases ...*database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		counter:   counter,
		startedAt: time.Now(),
		jobs:      make(map[string]scheduler.Job),
	}
}

// SetJobs registers jobs for manual triggering.
func (h *SystemHandlers) SetJobs(jobs ...scheduler.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, j := range jobs {
		if j != nil {
			h.jobs[j.Name()] = j
		}
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	status := "healthy"
	dbs := make([]DBInfo, 0, len(h.databases))
	for _, db := range h.databases {
		if db == nil {
			continue
		}
		info := DBInfo{Name: db.Name(), Path: db.Path(), Healthy: true}
		if st, err := os.Stat(db.Path()); err == nil {
			info.SizeMB = float64(st.Size()) / 1024 / 1024
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		if err := db.QuickCheck(ctx); err != nil {
			info.Healthy = false
			info.Error = err.Error()
			status = "degraded"
		}
		cancel()
		dbs = append(dbs, info)
	}

	records := map[string]int{}
	if h.counter != nil {
		counts, err := h.counter.CountByStatus()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count p2v records")
			status = "degraded"
		}
		for st, n := range counts {
			records[string(st)] = n
		}
	}

	response := SystemStatusResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		DiskPercent:   h.getDiskPercent(),
		Databases:     dbs,
		Records:       records,
		LastChecked:   time.Now().Format(time.RFC3339),
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleListJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names})
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	h.mu.RLock()
	job, ok := h.jobs[name]
	h.mu.RUnlock()
	if !ok {
		http.Error(w, "Job not registered", http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")
	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "job": name})
}

// getSystemStats returns CPU and RAM usage percentages.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) getDiskPercent() float64 {
	if h.dataDir == "" {
		return 0
	}
	usage, err := disk.Usage(h.dataDir)
	if err != nil {
		h.log.Warn().Err(err).Str("dir", h.dataDir).Msg("Failed to get disk usage")
		return 0
	}
	return usage.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
