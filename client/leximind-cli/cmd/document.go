package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Interact with the document service",
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Upload a document for ingestion",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		uploadDocument(args[0])
	},
}

var documentShowCmd = &cobra.Command{
	Use:   "show [document-id]",
	Short: "Show a document's metadata",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body := getJSON(fmt.Sprintf("%s/api/v1/documents/%s", documentServerURL, args[0]))
		fmt.Println(body)
	},
}

func init() {
	rootCmd.AddCommand(documentCmd)
	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentShowCmd)
}

func uploadDocument(path string) {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Error opening file: %v", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		log.Fatalf("Error creating form file: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		log.Fatalf("Error reading file: %v", err)
	}
	if err := writer.Close(); err != nil {
		log.Fatalf("Error finalizing form: %v", err)
	}

	resp, err := http.Post(documentServerURL+"/api/v1/documents", writer.FormDataContentType(), &buf)
	if err != nil {
		log.Fatalf("Error uploading document: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("Failed to upload document, status code: %d, body: %s", resp.StatusCode, body)
	}

	fmt.Println(string(body))
}
