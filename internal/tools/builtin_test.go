package tools

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksfoundation/oneshot/internal/cloud"
	"github.com/ksfoundation/oneshot/internal/cluster"
	"github.com/ksfoundation/oneshot/internal/commerce"
	"github.com/ksfoundation/oneshot/internal/config/tool"
	"github.com/ksfoundation/oneshot/internal/domains"
	"github.com/ksfoundation/oneshot/internal/hosting"
	"github.com/ksfoundation/oneshot/internal/intel"
	"github.com/ksfoundation/oneshot/internal/schema"
	"github.com/ksfoundation/oneshot/internal/workflow"
)

type failingRunner struct{}

func (failingRunner) Run(context.Context, string, ...string) (string, error) {
	return "", errors.New("docker: command not found")
}

func newTestServices(t *testing.T) Services {
	t.Helper()
	wf := tool.DefaultWorkflowConfig()
	wf.Dir = t.TempDir()
	wf.Interpreter = "sh"
	return Services{
		Hosting:  hosting.NewProvisioner(tool.DefaultHostingConfig(), failingRunner{}),
		Domains:  domains.NewChecker(),
		Cluster:  cluster.NewBootstrapper(cluster.NewSSHRunner(tool.DefaultClusterConfig())),
		Cloud:    cloud.NewManager(tool.DefaultCloudConfig()),
		Intel:    intel.NewService(),
		Commerce: commerce.NewSearcher(commerce.DefaultStores()...),
		Workflow: workflow.NewExecutor(wf),
	}
}

func TestBuiltinDescriptors(t *testing.T) {
	var names []string
	for _, d := range BuiltinDescriptors() {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
		require.NotNil(t, d.Parameters, d.Name)
		assert.Equal(t, "object", d.Parameters.Type, d.Name)
		assert.False(t, d.External(), d.Name)
	}
	assert.Equal(t, []string{
		"provision_hosting",
		"check_domain_availability",
		"deploy_k3s_cluster",
		"create_gcp_server",
		"search_nearby_business",
		"search_social_identity",
		"lookup_phone",
		"search_products",
		"generate_workflow",
	}, names)
}

func TestBuiltinTable_Displays(t *testing.T) {
	table, err := NewBuiltinTable(newTestServices(t))
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct {
		tool string
		args map[string]any
		want string
	}{
		{
			tool: "provision_hosting",
			args: map[string]any{"project_name": "blog", "tech_stack": hosting.StackNodeNext},
			want: "✅ Successfully provisioned blog (" + hosting.StackNodeNext + "). URL: https://blog.ksfoundation.space",
		},
		{
			tool: "check_domain_availability",
			args: map[string]any{"keyword": "ksfoundation"},
			want: "🔎 Domain Check: Available: ksfoundation.org, ksfoundation.edu, ksfoundation.net",
		},
		{
			tool: "deploy_k3s_cluster",
			args: map[string]any{"node_ip": "127.0.0.1"},
			want: "☸️  K3s Cluster 'k3s-master' deployed (Status: active).",
		},
		{
			tool: "lookup_phone",
			args: map[string]any{"phone_number": "+15551234567"},
			want: "📞 Caller ID Result: ",
		},
		{
			tool: "search_social_identity",
			args: map[string]any{"query": "jdoe"},
			want: "👥 Social Identities Found: ",
		},
		{
			tool: "search_nearby_business",
			args: map[string]any{"keyword": "NGO"},
			want: "📍 Found ",
		},
		{
			tool: "create_gcp_server",
			args: map[string]any{"project_id": "demo", "instance_name": "web-1"},
			want: "☁️  Google Cloud: Server 'web-1' created at 34.122.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.tool, func(t *testing.T) {
			_, display, err := table.Call(ctx, tc.tool, tc.args)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(display, tc.want), "got %q", display)
		})
	}
}

func TestBuiltinTable_Products(t *testing.T) {
	table, err := NewBuiltinTable(newTestServices(t))
	require.NoError(t, err)

	raw, display, err := table.Call(context.Background(), "search_products", map[string]any{"keyword": "laptop"})
	require.NoError(t, err)

	products := raw.([]commerce.Product)
	require.Len(t, products, 3)
	assert.Equal(t, "Flipkart", products[0].Store)
	assert.True(t, strings.HasPrefix(display, "🛒 Commerce Results: Flipkart: "), display)
	assert.Equal(t, 2, strings.Count(display, ", "))
}

func TestBuiltinTable_Workflow(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	table, err := NewBuiltinTable(newTestServices(t))
	require.NoError(t, err)

	raw, display, err := table.Call(context.Background(), "generate_workflow", map[string]any{
		"task_name":   "Say Hi",
		"python_code": "echo hi",
	})
	require.NoError(t, err)

	res := raw.(workflow.Result)
	assert.Equal(t, workflow.StatusSuccess, res.Status)
	assert.Equal(t, "🧬 Autonomous Workflow 'say_hi.py' finished (success).\nOutput:\nhi", display)
}

func TestBuiltinTable_RejectsBadStack(t *testing.T) {
	table, err := NewBuiltinTable(newTestServices(t))
	require.NoError(t, err)

	_, _, err = table.Call(context.Background(), "provision_hosting", map[string]any{
		"project_name": "blog", "tech_stack": "cobol",
	})
	assert.ErrorIs(t, err, schema.ErrMalformedArguments)
}
