package agent

import (
	"encoding/json"
	"os"
)

// Artifact file names within a job directory.
const (
	recommendationFile = "recommendation.json"
	planFile           = "plan.json"
	preflightFile      = "preflight.json"
	backupFile         = "backup.json"
	resultFile         = "result.json"
	reportFile         = "report.json"
	prFile             = "pr.json"
)

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
