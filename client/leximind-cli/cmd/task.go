package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	taskKind     string
	taskDocument string
	listLimit    int
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Interact with the orchestrator service",
}

var taskSubmitCmd = &cobra.Command{
	Use:   "submit [text]",
	Short: "Submit a new analysis task",
	Long:  `Submit a task with inline text, or with --document referencing an ingested document. Omit --kind to let the service classify the task.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := ""
		if len(args) > 0 {
			text = args[0]
		}
		submitTask(text, taskKind, taskDocument)
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show the current status of a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body := getJSON(fmt.Sprintf("%s/api/v1/tasks/%s", serverURL, args[0]))
		fmt.Println(body)
	},
}

var taskHistoryCmd = &cobra.Command{
	Use:   "history [task-id]",
	Short: "Show the full event history of a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body := getJSON(fmt.Sprintf("%s/api/v1/tasks/%s/history", serverURL, args[0]))
		fmt.Println(body)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent tasks, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		body := getJSON(fmt.Sprintf("%s/api/v1/tasks?limit=%d", serverURL, listLimit))
		fmt.Println(body)
	},
}

var taskWatchCmd = &cobra.Command{
	Use:   "watch [task-id]",
	Short: "Poll a task until it reaches a terminal state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		watchTask(args[0])
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskSubmitCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskHistoryCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskWatchCmd)

	taskSubmitCmd.Flags().StringVar(&taskKind, "kind", "", "task kind: contract, compliance or research (empty lets the service decide)")
	taskSubmitCmd.Flags().StringVar(&taskDocument, "document", "", "id of an ingested document to analyze instead of inline text")
	taskListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of tasks to list")
}

func submitTask(text, kind, documentID string) {
	payload := map[string]string{}
	if text != "" {
		payload["text"] = text
	}
	if kind != "" {
		payload["kind"] = kind
	}
	if documentID != "" {
		payload["document_id"] = documentID
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Error creating JSON payload: %v", err)
	}

	resp, err := http.Post(serverURL+"/api/v1/tasks", "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Fatalf("Error submitting task: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Failed to submit task, status code: %d, body: %s", resp.StatusCode, body)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	fmt.Printf("Task submitted successfully!\nTask ID: %s\n", result["task_id"])
	fmt.Printf("To watch for results, run: leximind-cli task watch %s\n", result["task_id"])
}

func watchTask(taskID string) {
	url := fmt.Sprintf("%s/api/v1/tasks/%s", serverURL, taskID)
	for {
		resp, err := http.Get(url)
		if err != nil {
			log.Fatalf("Error querying task: %v", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Fatalf("Error reading response: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			log.Fatalf("Failed to query task, status code: %d, body: %s", resp.StatusCode, body)
		}

		var view struct {
			Status   string `json:"status"`
			Progress *int   `json:"progress"`
		}
		if err := json.Unmarshal(body, &view); err != nil {
			log.Fatalf("Error decoding response: %v", err)
		}

		switch view.Status {
		case "completed", "failed":
			fmt.Println(string(body))
			return
		default:
			if view.Progress != nil {
				fmt.Printf("Task %s: %s (%d%%)\n", taskID, view.Status, *view.Progress)
			} else {
				fmt.Printf("Task %s: %s\n", taskID, view.Status)
			}
		}
		time.Sleep(2 * time.Second)
	}
}

func getJSON(url string) string {
	resp, err := http.Get(url)
	if err != nil {
		log.Fatalf("Error calling %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Request failed, status code: %d, body: %s", resp.StatusCode, body)
	}
	return string(body)
}
