package response

import (
	"engine/internal/flow"
	"engine/internal/schema"
)

// NodeResponse is the catalog entry the form renderer consumes.
type NodeResponse struct {
	Name        string                    `json:"name"`
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Icon        string                    `json:"icon"`
	NodeType    flow.NodeType             `json:"nodeType"`
	Category    string                    `json:"category"`
	Properties  *schema.Field             `json:"properties"`
	Result      *schema.Field             `json:"result"`
	Secrets     map[string]SecretResponse `json:"secrets,omitempty"`
}

type SecretResponse struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Schema      *schema.Field `json:"schema"`
}

func FromDefinition(def *flow.Definition) NodeResponse {
	resp := NodeResponse{
		Name:        def.Name,
		Title:       def.Title,
		Description: def.Description,
		Icon:        def.Icon,
		NodeType:    def.NodeType,
		Category:    def.Category,
		Properties:  def.Properties,
		Result:      def.Result,
	}
	if len(def.Secrets) > 0 {
		resp.Secrets = make(map[string]SecretResponse, len(def.Secrets))
		for slot, sd := range def.Secrets {
			resp.Secrets[slot] = SecretResponse{
				Name:        sd.Name,
				Title:       sd.Title,
				Description: sd.Description,
				Schema:      sd.Schema,
			}
		}
	}
	return resp
}
