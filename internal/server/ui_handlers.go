package server

import (
	"net/http"

	"github.com/cwbudde/evoshapes/internal/ui"
)

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	jobs := s.jobManager.ListJobs()

	jobItems := make([]ui.JobListItem, len(jobs))
	for i, job := range jobs {
		jobItems[i] = ui.JobListItem{
			ID:             job.ID,
			State:          string(job.State),
			RefPath:        job.Config.RefPath,
			Backend:        job.Config.Backend,
			Genes:          job.Config.Genes,
			Vertices:       job.Config.Vertices,
			Generation:     job.Generation,
			BestFitness:    job.BestFitness,
			InitialFitness: job.InitialFitness,
			StartTime:      job.StartTime,
			EndTime:        job.EndTime,
			Error:          job.Error,
		}
	}

	if err := ui.JobList(jobItems).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
