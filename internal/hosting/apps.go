package hosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// AppPreset is a one-click application from the app catalog.
type AppPreset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"docker_image"`
	Ports       []int  `json:"default_ports"`
	Category    string `json:"category"`
}

// Apps is the one-click catalog, in display order.
var Apps = []AppPreset{
	{ID: "nextcloud", Name: "Nextcloud", Description: "Your private file storage and cloud suite.", Image: "nextcloud:latest", Ports: []int{8080}, Category: "Productivity"},
	{ID: "filebrowser", Name: "File Browser", Description: "Simple web-based file manager.", Image: "filebrowser/filebrowser", Ports: []int{80}, Category: "Utilities"},
	{ID: "wordpress", Name: "WordPress", Description: "The world's most popular website builder.", Image: "wordpress:latest", Ports: []int{80}, Category: "CMS"},
	{ID: "uptime-kuma", Name: "Uptime Kuma", Description: "Self-hosted monitoring tool.", Image: "louislam/uptime-kuma:1", Ports: []int{3001}, Category: "Monitoring"},
	{ID: StackJavaTomcat, Name: "Java (Tomcat)", Description: "Apache Tomcat 10 for Java Web Apps.", Image: "tomcat:10-jdk17", Ports: []int{8080}, Category: "Development"},
	{ID: StackPHPLamp, Name: "PHP (LAMP)", Description: "Apache + PHP 8.2 environment.", Image: "php:8.2-apache", Ports: []int{80}, Category: "Development"},
	{ID: StackSAPDev, Name: "SAP NetWeaver (Dev)", Description: "SAP ABAP AS NetWeaver 7.5x (Requires 16GB+ RAM).", Image: "sapse/abap-platform-trial:1909", Ports: []int{3200, 3300, 8000, 44300}, Category: "Enterprise"},
}

var (
	ErrUnknownApp       = errors.New("app not found")
	ErrInvalidSubdomain = errors.New("subdomain must be lowercase letters, digits and inner hyphens")
)

var reSubdomain = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// FindApp looks up a preset by id.
func FindApp(id string) (AppPreset, bool) {
	for _, a := range Apps {
		if a.ID == id {
			return a, true
		}
	}
	return AppPreset{}, false
}

// AppDeployment is the result of deploying a preset.
type AppDeployment struct {
	App       AppPreset     `json:"app"`
	Command   string        `json:"command"`
	Container ContainerInfo `json:"container"`
}

func (p *Provisioner) appArgs(appID, subdomain string) (AppPreset, []string, error) {
	app, ok := FindApp(appID)
	if !ok {
		return AppPreset{}, nil, fmt.Errorf("%w: %q", ErrUnknownApp, appID)
	}
	if !reSubdomain.MatchString(subdomain) {
		return AppPreset{}, nil, ErrInvalidSubdomain
	}
	router := app.ID + "-" + subdomain
	args := []string{
		"run", "-d",
		"--name", router,
		"--restart", "always",
		"--label", "traefik.enable=true",
		"--label", fmt.Sprintf("traefik.http.routers.%s.rule=Host(`%s.%s`)", router, subdomain, p.cfg.BaseDomain),
		"--label", fmt.Sprintf("traefik.http.services.%s.loadbalancer.server.port=%d", router, app.Ports[0]),
		app.Image,
	}
	return app, args, nil
}

// DeployCommand renders the shell command that runs appID behind Traefik at
// <subdomain>.<base domain>.
func (p *Provisioner) DeployCommand(appID, subdomain string) (string, error) {
	_, args, err := p.appArgs(appID, subdomain)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, p.cfg.Runtime)
	for _, a := range args {
		if strings.ContainsAny(a, " `()") {
			a = "'" + a + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " "), nil
}

// DeployApp starts appID through the container runtime. As with Provision, a
// missing or failing runtime yields a mock container.
func (p *Provisioner) DeployApp(ctx context.Context, appID, subdomain string) (AppDeployment, error) {
	app, args, err := p.appArgs(appID, subdomain)
	if err != nil {
		return AppDeployment{}, err
	}
	command, _ := p.DeployCommand(appID, subdomain)
	dep := AppDeployment{App: app, Command: command}
	name := app.ID + "-" + subdomain

	slog.Info("hosting: deploying app", "app", app.ID, "container", name)
	out, err := p.runner.Run(ctx, p.cfg.Runtime, args...)
	if err != nil {
		if ctx.Err() != nil {
			return AppDeployment{}, ctx.Err()
		}
		slog.Warn("hosting: container runtime unavailable, using mock", "container", name, "err", err)
		dep.Container = p.mock(name, subdomain)
		dep.Container.Ports = map[string]any{strconv.Itoa(app.Ports[0]) + "/tcp": app.Ports[0]}
		return dep, nil
	}

	id := out
	if len(id) > 12 {
		id = id[:12]
	}
	dep.Container = ContainerInfo{
		ID:     id,
		Name:   name,
		Status: "running",
		Ports:  map[string]any{strconv.Itoa(app.Ports[0]) + "/tcp": nil},
		URL:    p.URL(subdomain),
	}
	return dep, nil
}
