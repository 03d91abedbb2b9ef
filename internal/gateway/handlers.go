package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ksfoundation/oneshot/internal/cluster"
	"github.com/ksfoundation/oneshot/internal/domains"
	"github.com/ksfoundation/oneshot/internal/hosting"
	"github.com/ksfoundation/oneshot/internal/intel"
	"github.com/ksfoundation/oneshot/internal/journal"
	"github.com/ksfoundation/oneshot/internal/providers"
	"github.com/ksfoundation/oneshot/internal/schema"
)

type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

type chatResponse struct {
	Response  string                        `json:"response"`
	ToolsUsed []schema.ToolInvocationResult `json:"tools_used"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type provisionRequest struct {
	UserID      string `json:"user_id"`
	ProjectName string `json:"project_name"`
	TechStack   string `json:"tech_stack"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// chatStatus maps a Chat error to an HTTP status.
func chatStatus(err error) int {
	switch {
	case errors.Is(err, schema.ErrBackendTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, schema.ErrBackendUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) chat(ctx context.Context, req chatRequest) (schema.AgentResponse, error) {
	model := req.Model
	if model == "" {
		model = s.opts.Config.DefaultModel
	}
	ctx, cancel := context.WithTimeout(journal.WithSource(ctx, "gateway"), s.requestTimeout())
	defer cancel()
	return s.opts.Chat.Chat(ctx, req.Message, model)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	report := map[string]any{
		"status":  "online",
		"project": "oneshot",
		"mode":    "light_speed_ai",
		"version": s.opts.Version,
	}
	if s.opts.Down != nil {
		if down := s.opts.Down(); len(down) > 0 {
			report["providers_down"] = down
		}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := s.chat(r.Context(), req)
	if err != nil {
		writeError(w, chatStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: resp.Content, ToolsUsed: resp.ToolCalls})
}

type toolView struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	Provider    string         `json:"provider,omitempty"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.Catalog.Build(r.Context())
	descs := snap.Descriptors()
	out := make([]toolView, len(descs))
	for i, d := range descs {
		out[i] = toolView{Name: d.Name, Description: d.Description, InputSchema: d.ParametersMap(), Provider: d.Provider}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, providers.Models())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.Journal == nil {
		writeError(w, http.StatusNotFound, "journal is disabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.opts.Journal.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDomainCheck(w http.ResponseWriter, r *http.Request) {
	results, err := s.opts.Services.Domains.Check(r.Context(), r.URL.Query().Get("q"))
	if errors.Is(err, domains.ErrEmptyKeyword) {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.TechStack == "" {
		req.TechStack = hosting.StackPythonFastAPI
	}
	if strings.TrimSpace(req.ProjectName) == "" {
		writeError(w, http.StatusBadRequest, "project_name is required")
		return
	}
	info, err := s.opts.Services.Hosting.Provision(r.Context(), req.UserID, req.ProjectName, req.TechStack)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get("location")
	if location == "" {
		location = intel.DefaultLocation
	}
	places, err := s.opts.Services.Intel.SearchNearbyBusiness(r.Context(), q.Get("keyword"), location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, places)
}

func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.opts.Services.Intel.SearchSocialIdentity(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := s.opts.Services.Intel.LookupPhone(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// readJSON reads a JSON body into v, answering 400 on failure.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleApps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, hosting.Apps)
}

type appDeployRequest struct {
	AppID     string `json:"app_id"`
	Subdomain string `json:"subdomain"`
}

func (s *Server) handleAppDeploy(w http.ResponseWriter, r *http.Request) {
	var req appDeployRequest
	if !readJSON(w, r, &req) {
		return
	}
	dep, err := s.opts.Services.Hosting.DeployApp(r.Context(), req.AppID, req.Subdomain)
	switch {
	case errors.Is(err, hosting.ErrUnknownApp):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, hosting.ErrInvalidSubdomain):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, dep)
	}
}

type domainRegisterRequest struct {
	Domain string `json:"domain"`
	UserID string `json:"user_id"`
}

func (s *Server) handleDomainRegister(w http.ResponseWriter, r *http.Request) {
	var req domainRegisterRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	reg, err := s.opts.Services.Domains.Register(r.Context(), req.Domain, req.UserID)
	switch {
	case errors.Is(err, domains.ErrDomainTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domains.ErrEmptyKeyword), errors.Is(err, domains.ErrUnsupportedExtension):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, reg)
	}
}

type nodeRequest struct {
	IP       string `json:"ip"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Port     int    `json:"port"`
}

func (n nodeRequest) node() cluster.Node {
	return cluster.Node{IP: n.IP, Name: n.Name, User: n.Username, Port: n.Port}
}

func (s *Server) handleNodeProvision(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.IP) == "" {
		writeError(w, http.StatusBadRequest, "ip is required")
		return
	}
	report, err := s.opts.Services.Cluster.ProvisionNode(r.Context(), req.node())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type helmRequest struct {
	nodeRequest
	Chart  string            `json:"chart"`
	Values map[string]string `json:"values"`
}

func (s *Server) handleHelmDeploy(w http.ResponseWriter, r *http.Request) {
	var req helmRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.IP) == "" {
		writeError(w, http.StatusBadRequest, "ip is required")
		return
	}
	if _, err := cluster.HelmCommand(req.Chart, req.Values); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rel, err := s.opts.Services.Cluster.DeployHelmChart(r.Context(), req.node(), req.Chart, req.Values)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

type ufwRequest struct {
	Rules []cluster.FirewallRule `json:"rules"`
}

func (s *Server) handleUFW(w http.ResponseWriter, r *http.Request) {
	var req ufwRequest
	if !readJSON(w, r, &req) {
		return
	}
	cmds, err := cluster.UFWCommands(req.Rules)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}

func (s *Server) handleBlockCountry(w http.ResponseWriter, r *http.Request) {
	cmds, err := cluster.BlockCountryCommands(r.URL.Query().Get("country"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds})
}
