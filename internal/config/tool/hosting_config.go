package tool

// HostingConfig configures container provisioning.
type HostingConfig struct {
	Runtime    string `json:"runtime" yaml:"runtime"` // container CLI, e.g. "docker"
	BaseDomain string `json:"baseDomain" yaml:"baseDomain"`
	Owner      string `json:"owner" yaml:"owner"`
	Memory     string `json:"memory" yaml:"memory"`
	CPUQuota   int    `json:"cpuQuota" yaml:"cpuQuota"`
	Timeout    int    `json:"timeout" yaml:"timeout"` // seconds
}

func DefaultHostingConfig() HostingConfig {
	return HostingConfig{
		Runtime:    "docker",
		BaseDomain: "ksfoundation.space",
		Owner:      "user_auto",
		Memory:     "512m",
		CPUQuota:   50000,
		Timeout:    120,
	}
}

// ClusterConfig configures SSH access to cluster nodes.
type ClusterConfig struct {
	User           string `json:"user" yaml:"user"`
	Port           int    `json:"port" yaml:"port"`
	KeyPath        string `json:"keyPath,omitempty" yaml:"keyPath,omitempty"`
	Password       string `json:"password,omitempty" yaml:"password,omitempty"`
	KnownHostsPath string `json:"knownHostsPath,omitempty" yaml:"knownHostsPath,omitempty"`
	Timeout        int    `json:"timeout" yaml:"timeout"` // seconds per command
}

func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		User:    "root",
		Port:    22,
		KeyPath: "~/.ssh/id_rsa",
		Timeout: 300,
	}
}

// CloudConfig configures simulated cloud VM creation.
type CloudConfig struct {
	Zone        string `json:"zone" yaml:"zone"`
	MachineType string `json:"machineType" yaml:"machineType"`
}

func DefaultCloudConfig() CloudConfig {
	return CloudConfig{Zone: "us-central1-a", MachineType: "e2-micro"}
}
