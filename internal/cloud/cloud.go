// Package cloud creates free-tier compute instances.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	toolcfg "github.com/ksfoundation/oneshot/internal/config/tool"
)

// Instance describes a created VM.
type Instance struct {
	Project     string `json:"project_id"`
	Name        string `json:"name"`
	IPAddress   string `json:"ip_address"`
	Zone        string `json:"zone"`
	Status      string `json:"status"`
	MachineType string `json:"machine_type"`
}

// Manager creates instances. Creation is simulated: no cloud API is called and
// the address is derived from the instance name.
type Manager struct {
	cfg toolcfg.CloudConfig
}

func NewManager(cfg toolcfg.CloudConfig) *Manager {
	return &Manager{cfg: cfg}
}

// CreateInstance creates a free-tier instance in the configured zone.
func (m *Manager) CreateInstance(ctx context.Context, projectID, name string) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return Instance{}, err
	}
	if projectID == "" || name == "" {
		return Instance{}, errors.New("project id and instance name are required")
	}

	slog.Info("cloud: creating instance", "project", projectID, "name", name, "machine", m.cfg.MachineType, "zone", m.cfg.Zone)

	return Instance{
		Project:     projectID,
		Name:        name,
		IPAddress:   mockIP(name),
		Zone:        m.cfg.Zone,
		Status:      "PROVISIONING",
		MachineType: m.cfg.MachineType,
	}, nil
}

func mockIP(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("34.122.%d.10", h.Sum32()%255)
}
