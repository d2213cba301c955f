package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cwbudde/evoshapes/internal/server"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	cancelJob bool
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	statusCmd.Flags().BoolVar(&cancelJob, "cancel", false, "Ask the server to stop the job")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		if cancelJob {
			return fmt.Errorf("--cancel needs a job id")
		}
		return listJobs(out, serverURL+"/api/v1/jobs")
	}

	jobID := args[0]
	if cancelJob {
		return requestCancel(out, serverURL+"/api/v1/jobs/"+jobID, jobID)
	}
	return getJobStatus(out, serverURL+"/api/v1/jobs/"+jobID+"/status", jobID)
}

func listJobs(out io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []server.Job
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Shapes: %d x %d vertices\n", job.Config.Genes, job.Config.Vertices)
		fmt.Fprintf(out, "  Generation: %d\n", job.Generation)
		if job.BestFitness > 0 {
			fmt.Fprintf(out, "  Fitness: %.2f -> %.2f\n", job.InitialFitness, job.BestFitness)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getJobStatus(out io.Writer, url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status server.JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintln(out)

	config := status.Config
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Reference: %s\n", config.RefPath)
	fmt.Fprintf(out, "  Population: %d\n", config.PopulationSize)
	fmt.Fprintf(out, "  Shapes: %d x %d vertices\n", config.Genes, config.Vertices)
	if config.MutationRate != nil {
		fmt.Fprintf(out, "  Mutation rate: %g\n", *config.MutationRate)
	}
	fmt.Fprintf(out, "  Backend: %s (%s)\n", config.Backend, config.Metric)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Generation: %d\n", status.Generation)
	if status.BestFitness > 0 {
		fmt.Fprintf(out, "  Initial Fitness: %.2f\n", status.InitialFitness)
		fmt.Fprintf(out, "  Best Fitness: %.2f (+%.2f)\n", status.BestFitness, status.BestFitness-status.InitialFitness)
	}

	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.GPS > 0 {
		fmt.Fprintf(out, "  Throughput: %.1f generations/sec\n", status.GPS)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}

func requestCancel(out io.Writer, url, jobID string) error {
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		fmt.Fprintf(out, "Cancellation requested for %s\n", jobID)
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("job not found: %s", jobID)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}
}
