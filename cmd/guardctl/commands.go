package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// client calls the guardd HTTP API.
type client struct {
	addr string
	http *http.Client
}

func (c *client) get(path string) (json.RawMessage, error) {
	resp, err := c.http.Get(c.addr + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func (c *client) post(path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Post(c.addr+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func readResponse(resp *http.Response) (json.RawMessage, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("guardd returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// printJSON pretty-prints a raw JSON response.
func printJSON(raw json.RawMessage) error {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}

// checkRequest is the shared validate/transform body.
type checkRequest struct {
	Content    any             `json:"content"`
	Guardrails []string        `json:"guardrails"`
	Options    json.RawMessage `json:"options,omitempty"`
}

// buildCheckRequest assembles the body from flags and positional content
// arguments. A single argument is sent as a single string to exercise the
// single-string envelope; multiple arguments are sent as a batch.
func buildCheckRequest(args, guardrails []string, optionsJSON string) (*checkRequest, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one content argument is required")
	}

	var content any
	if len(args) == 1 {
		content = args[0]
	} else {
		content = args
	}

	req := &checkRequest{Content: content, Guardrails: guardrails}
	if optionsJSON != "" {
		if !json.Valid([]byte(optionsJSON)) {
			return nil, fmt.Errorf("--options must be valid JSON")
		}
		req.Options = json.RawMessage(optionsJSON)
	}
	return req, nil
}

func newRootCmd() *cobra.Command {
	var addr string
	c := &client{http: &http.Client{Timeout: 60 * time.Second}}

	root := &cobra.Command{
		Use:           "guardctl",
		Short:         "Interact with a running guardd instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.addr = addr
		},
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://localhost:9090", "guardd base URL")

	root.AddCommand(newListCmd(c))
	root.AddCommand(newHealthCmd(c))
	root.AddCommand(newCheckCmd(c, "validate", "Validate content against guardrails"))
	root.AddCommand(newCheckCmd(c, "transform", "Transform content through guardrails"))
	return root
}

func newListCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available guardrails",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := c.get("/api/v1/guardrails")
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
}

func newHealthCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show service and guardrail health",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := c.get("/health")
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}
}

func newCheckCmd(c *client, name, short string) *cobra.Command {
	var guardrails []string
	var optionsJSON string

	cmd := &cobra.Command{
		Use:   name + " [content...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(guardrails) == 0 {
				return fmt.Errorf("--guardrails is required")
			}

			// "-" as the sole argument reads content from stdin.
			if len(args) == 1 && args[0] == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				args = []string{string(data)}
			}

			req, err := buildCheckRequest(args, guardrails, optionsJSON)
			if err != nil {
				return err
			}

			raw, err := c.post("/api/v1/"+name, req)
			if err != nil {
				return err
			}
			return printJSON(raw)
		},
	}

	cmd.Flags().StringSliceVar(&guardrails, "guardrails", nil, "ordered guardrail ids to apply")
	cmd.Flags().StringVar(&optionsJSON, "options", "", "per-guardrail option overrides as JSON")
	return cmd
}
