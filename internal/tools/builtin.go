package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ksfoundation/oneshot/internal/cloud"
	"github.com/ksfoundation/oneshot/internal/cluster"
	"github.com/ksfoundation/oneshot/internal/commerce"
	"github.com/ksfoundation/oneshot/internal/domains"
	"github.com/ksfoundation/oneshot/internal/hosting"
	"github.com/ksfoundation/oneshot/internal/intel"
	"github.com/ksfoundation/oneshot/internal/schema"
	"github.com/ksfoundation/oneshot/internal/workflow"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolProvisionHosting     ToolName = "provision_hosting"
	ToolCheckDomain          ToolName = "check_domain_availability"
	ToolDeployK3s            ToolName = "deploy_k3s_cluster"
	ToolCreateGCPServer      ToolName = "create_gcp_server"
	ToolSearchNearbyBusiness ToolName = "search_nearby_business"
	ToolSearchSocial         ToolName = "search_social_identity"
	ToolLookupPhone          ToolName = "lookup_phone"
	ToolSearchProducts       ToolName = "search_products"
	ToolGenerateWorkflow     ToolName = "generate_workflow"
)

// Services are the backends behind the built-in tools.
type Services struct {
	Hosting  *hosting.Provisioner
	Domains  *domains.Checker
	Cluster  *cluster.Bootstrapper
	Cloud    *cloud.Manager
	Intel    *intel.Service
	Commerce *commerce.Searcher
	Workflow *workflow.Executor
}

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func stackEnum() []any {
	out := make([]any, len(hosting.Stacks))
	for i, s := range hosting.Stacks {
		out[i] = s
	}
	return out
}

// BuiltinDescriptors returns the first-party descriptors in declaration order.
func BuiltinDescriptors() []schema.ToolDescriptor {
	return []schema.ToolDescriptor{
		{
			Name:        string(ToolProvisionHosting),
			Description: "Deploy a new project/container (Python, Node, PHP, Java).",
			Parameters: object([]string{"project_name", "tech_stack"}, map[string]*jsonschema.Schema{
				"project_name": str(""),
				"tech_stack":   {Type: "string", Enum: stackEnum()},
			}),
		},
		{
			Name:        string(ToolCheckDomain),
			Description: "Check if a domain name is available.",
			Parameters: object([]string{"keyword"}, map[string]*jsonschema.Schema{
				"keyword": str(""),
			}),
		},
		{
			Name:        string(ToolDeployK3s),
			Description: "Deploy a lightweight Kubernetes cluster on a node.",
			Parameters: object([]string{"node_ip"}, map[string]*jsonschema.Schema{
				"node_ip":   str(""),
				"node_name": str(""),
			}),
		},
		{
			Name:        string(ToolCreateGCPServer),
			Description: "Create a FREE Tier Google Cloud server (e2-micro).",
			Parameters: object([]string{"project_id", "instance_name"}, map[string]*jsonschema.Schema{
				"project_id":    str("GCP Project ID"),
				"instance_name": str("Name for the server"),
			}),
		},
		{
			Name:        string(ToolSearchNearbyBusiness),
			Description: "Find businesses/NGOs near a location via Google Maps.",
			Parameters: object([]string{"keyword"}, map[string]*jsonschema.Schema{
				"keyword":  str("Type of business (e.g. 'Schools', 'NGO')"),
				"location": str("Lat,Lng string (default: SF)"),
			}),
		},
		{
			Name:        string(ToolSearchSocial),
			Description: "Search social media (Meta/Yahoo) for a profile.",
			Parameters: object([]string{"query"}, map[string]*jsonschema.Schema{
				"query": str("Name or Username"),
			}),
		},
		{
			Name:        string(ToolLookupPhone),
			Description: "Identify a phone number (Truecaller style).",
			Parameters: object([]string{"phone_number"}, map[string]*jsonschema.Schema{
				"phone_number": str(""),
			}),
		},
		{
			Name:        string(ToolSearchProducts),
			Description: "Find products prices on Amazon, Flipkart, Shopify.",
			Parameters: object([]string{"keyword"}, map[string]*jsonschema.Schema{
				"keyword": str("Product name (e.g. 'iPhone 15', 'Shoes')"),
			}),
		},
		{
			Name:        string(ToolGenerateWorkflow),
			Description: "AUTONOMOUS: Write and execute a Python script to solve ANY task not covered by other tools.",
			Parameters: object([]string{"task_name", "python_code"}, map[string]*jsonschema.Schema{
				"task_name":   str("Name of the task (e.g., 'scrape_rss')"),
				"python_code": str("Complete, valid Python code to execute."),
			}),
		},
	}
}

func argString(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// RegisterBuiltins registers every built-in tool on b.
func RegisterBuiltins(b *TableBuilder, s Services) *TableBuilder {
	descs := BuiltinDescriptors()
	byName := make(map[ToolName]schema.ToolDescriptor, len(descs))
	for _, d := range descs {
		byName[ToolName(d.Name)] = d
	}

	return b.
		Register(byName[ToolProvisionHosting],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Hosting.Provision(ctx, "", argString(args, "project_name", ""), argString(args, "tech_stack", ""))
			},
			func(args map[string]any, result any) string {
				info := result.(hosting.ContainerInfo)
				return fmt.Sprintf("✅ Successfully provisioned %s (%s). URL: %s",
					argString(args, "project_name", ""), argString(args, "tech_stack", ""), info.URL)
			}).
		Register(byName[ToolCheckDomain],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Domains.Check(ctx, argString(args, "keyword", ""))
			},
			func(_ map[string]any, result any) string {
				avail := domains.AvailableNames(result.([]domains.Result))
				return "🔎 Domain Check: Available: " + strings.Join(firstN(avail, 3), ", ")
			}).
		Register(byName[ToolDeployK3s],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Cluster.BootstrapMaster(ctx, cluster.Node{
					IP:   argString(args, "node_ip", ""),
					Name: argString(args, "node_name", cluster.DefaultNodeName),
				})
			},
			func(_ map[string]any, result any) string {
				cl := result.(cluster.Cluster)
				return fmt.Sprintf("☸️  K3s Cluster '%s' deployed (Status: %s).", cl.Name, cl.Status)
			}).
		Register(byName[ToolCreateGCPServer],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Cloud.CreateInstance(ctx, argString(args, "project_id", ""), argString(args, "instance_name", ""))
			},
			func(_ map[string]any, result any) string {
				inst := result.(cloud.Instance)
				return fmt.Sprintf("☁️  Google Cloud: Server '%s' created at %s (%s).", inst.Name, inst.IPAddress, inst.MachineType)
			}).
		Register(byName[ToolSearchNearbyBusiness],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Intel.SearchNearbyBusiness(ctx, argString(args, "keyword", ""), argString(args, "location", intel.DefaultLocation))
			},
			func(_ map[string]any, result any) string {
				places := result.([]intel.Place)
				return fmt.Sprintf("📍 Found %d businesses near you: %s...",
					len(places), strings.Join(firstN(intel.PlaceNames(places), 3), ", "))
			}).
		Register(byName[ToolSearchSocial],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Intel.SearchSocialIdentity(ctx, argString(args, "query", ""))
			},
			func(_ map[string]any, result any) string {
				return "👥 Social Identities Found: " + strings.Join(intel.ProfileLabels(result.([]intel.Profile)), ", ")
			}).
		Register(byName[ToolLookupPhone],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Intel.LookupPhone(ctx, argString(args, "phone_number", ""))
			},
			func(_ map[string]any, result any) string {
				id := result.(intel.CallerID)
				return fmt.Sprintf("📞 Caller ID Result: %s (%s)", id.Name, id.Carrier)
			}).
		Register(byName[ToolSearchProducts],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Commerce.Search(ctx, argString(args, "keyword", ""))
			},
			func(_ map[string]any, result any) string {
				products := result.([]commerce.Product)
				if len(products) > 3 {
					products = products[:3]
				}
				found := make([]string, len(products))
				for i, p := range products {
					found[i] = fmt.Sprintf("%s: %s - %g %s", p.Store, p.Title, p.Price, p.Currency)
				}
				return "🛒 Commerce Results: " + strings.Join(found, ", ")
			}).
		Register(byName[ToolGenerateWorkflow],
			func(ctx context.Context, args map[string]any) (any, error) {
				return s.Workflow.Run(ctx, argString(args, "task_name", ""), argString(args, "python_code", ""))
			},
			func(_ map[string]any, result any) string {
				res := result.(workflow.Result)
				return fmt.Sprintf("🧬 Autonomous Workflow '%s' finished (%s).\nOutput:\n%s", res.Filename, res.Status, res.Output)
			})
}

// NewBuiltinTable builds a table holding only the built-in tools.
func NewBuiltinTable(s Services) (*Table, error) {
	return RegisterBuiltins(NewTableBuilder(), s).Build()
}
