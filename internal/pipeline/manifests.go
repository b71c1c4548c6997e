package pipeline

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nebulascloud/jaci/internal/models"
)

type composeHealthcheck struct {
	Test        []string `yaml:"test"`
	Interval    string   `yaml:"interval"`
	Timeout     string   `yaml:"timeout"`
	Retries     int      `yaml:"retries"`
	StartPeriod string   `yaml:"start_period"`
}

type composeService struct {
	Image         string             `yaml:"image"`
	ContainerName string             `yaml:"container_name"`
	Environment   []string           `yaml:"environment"`
	Volumes       []string           `yaml:"volumes"`
	Networks      []string           `yaml:"networks"`
	Restart       string             `yaml:"restart"`
	Healthcheck   composeHealthcheck `yaml:"healthcheck"`
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
	Networks map[string]map[string]any `yaml:"networks"`
	Volumes  map[string]map[string]any `yaml:"volumes"`
}

// RenderCompose renders the docker-compose manifest for the target
// application.
func RenderCompose(app, registry string) ([]byte, error) {
	doc := composeFile{
		Services: map[string]composeService{
			app: {
				Image:         fmt.Sprintf("%s/%s:latest", registry, app),
				ContainerName: app,
				Environment:   []string{"ENVIRONMENT=production"},
				Volumes:       []string{"./configs/production.env:/app/.env:ro"},
				Networks:      []string{"app-network"},
				Restart:       "unless-stopped",
				Healthcheck: composeHealthcheck{
					Test:        []string{"CMD", "/usr/local/bin/" + app, "--version"},
					Interval:    "30s",
					Timeout:     "10s",
					Retries:     3,
					StartPeriod: "60s",
				},
			},
		},
		Networks: map[string]map[string]any{
			"app-network": {"driver": "bridge"},
		},
		Volumes: map[string]map[string]any{
			"app-data": {"driver": "local"},
		},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal compose manifest: %w", err)
	}
	return out, nil
}

type k8sMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

type k8sSecurityContext struct {
	RunAsNonRoot             bool  `yaml:"runAsNonRoot"`
	RunAsUser                int   `yaml:"runAsUser"`
	FsGroup                  int   `yaml:"fsGroup,omitempty"`
	AllowPrivilegeEscalation *bool `yaml:"allowPrivilegeEscalation,omitempty"`
	ReadOnlyRootFilesystem   *bool `yaml:"readOnlyRootFilesystem,omitempty"`
}

type k8sResources struct {
	Requests map[string]string `yaml:"requests"`
	Limits   map[string]string `yaml:"limits"`
}

type k8sProbe struct {
	Exec                map[string][]string `yaml:"exec"`
	InitialDelaySeconds int                 `yaml:"initialDelaySeconds"`
	PeriodSeconds       int                 `yaml:"periodSeconds"`
}

type k8sContainer struct {
	Name            string              `yaml:"name"`
	Image           string              `yaml:"image"`
	ImagePullPolicy string              `yaml:"imagePullPolicy"`
	Ports           []map[string]any    `yaml:"ports"`
	Env             []map[string]string `yaml:"env"`
	Resources       k8sResources        `yaml:"resources"`
	LivenessProbe   k8sProbe            `yaml:"livenessProbe"`
	ReadinessProbe  k8sProbe            `yaml:"readinessProbe"`
	SecurityContext k8sSecurityContext  `yaml:"securityContext"`
}

type k8sDeployment struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   k8sMetadata `yaml:"metadata"`
	Spec       struct {
		Replicas int `yaml:"replicas"`
		Selector struct {
			MatchLabels map[string]string `yaml:"matchLabels"`
		} `yaml:"selector"`
		Template struct {
			Metadata k8sMetadata `yaml:"metadata"`
			Spec     struct {
				SecurityContext k8sSecurityContext `yaml:"securityContext"`
				Containers      []k8sContainer     `yaml:"containers"`
			} `yaml:"spec"`
		} `yaml:"template"`
	} `yaml:"spec"`
}

type k8sService struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   k8sMetadata `yaml:"metadata"`
	Spec       struct {
		Selector map[string]string `yaml:"selector"`
		Ports    []map[string]any  `yaml:"ports"`
		Type     string            `yaml:"type"`
	} `yaml:"spec"`
}

// RenderDeployment renders the Kubernetes Deployment manifest with the
// hardened pod and container security contexts.
func RenderDeployment(app, registry string) ([]byte, error) {
	no := false
	yes := true
	probe := k8sProbe{
		Exec:          map[string][]string{"command": {"/usr/local/bin/" + app, "--version"}},
		PeriodSeconds: 30,
	}
	readiness := probe
	readiness.InitialDelaySeconds = 5
	readiness.PeriodSeconds = 10
	liveness := probe
	liveness.InitialDelaySeconds = 30

	d := k8sDeployment{
		APIVersion: "apps/v1",
		Kind:       "Deployment",
		Metadata: k8sMetadata{
			Name:   app,
			Labels: map[string]string{"app": app},
		},
	}
	d.Spec.Replicas = 1
	d.Spec.Selector.MatchLabels = map[string]string{"app": app}
	d.Spec.Template.Metadata = k8sMetadata{Labels: map[string]string{"app": app}}
	d.Spec.Template.Spec.SecurityContext = k8sSecurityContext{
		RunAsNonRoot: true,
		RunAsUser:    1000,
		FsGroup:      1000,
	}
	d.Spec.Template.Spec.Containers = []k8sContainer{{
		Name:            app,
		Image:           fmt.Sprintf("%s/%s:latest", registry, app),
		ImagePullPolicy: "Always",
		Ports: []map[string]any{
			{"containerPort": 8080, "name": "http"},
		},
		Env: []map[string]string{
			{"name": "ENVIRONMENT", "value": "production"},
		},
		Resources: k8sResources{
			Requests: map[string]string{"memory": "128Mi", "cpu": "100m"},
			Limits:   map[string]string{"memory": "512Mi", "cpu": "500m"},
		},
		LivenessProbe:  liveness,
		ReadinessProbe: readiness,
		SecurityContext: k8sSecurityContext{
			RunAsNonRoot:             true,
			RunAsUser:                1000,
			AllowPrivilegeEscalation: &no,
			ReadOnlyRootFilesystem:   &yes,
		},
	}}

	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal deployment manifest: %w", err)
	}
	return out, nil
}

// RenderService renders the Kubernetes Service manifest.
func RenderService(app string) ([]byte, error) {
	s := k8sService{
		APIVersion: "v1",
		Kind:       "Service",
		Metadata: k8sMetadata{
			Name:   app + "-service",
			Labels: map[string]string{"app": app},
		},
	}
	s.Spec.Selector = map[string]string{"app": app}
	s.Spec.Ports = []map[string]any{
		{"name": "http", "port": 80, "targetPort": 8080, "protocol": "TCP"},
	}
	s.Spec.Type = "ClusterIP"

	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal service manifest: %w", err)
	}
	return out, nil
}

// GenerateManifests renders the deployment manifests and exports them
// to outputDir on the host.
func (e *Engine) GenerateManifests(ctx context.Context, registry, outputDir string) (*models.ManifestResult, error) {
	app := e.binaryName()

	compose, err := RenderCompose(app, registry)
	if err != nil {
		return nil, err
	}
	deployment, err := RenderDeployment(app, registry)
	if err != nil {
		return nil, err
	}
	service, err := RenderService(app)
	if err != nil {
		return nil, err
	}

	dir := e.client.Directory().
		WithNewFile("docker-compose.yml", string(compose)).
		WithNewFile("k8s-deployment.yaml", string(deployment)).
		WithNewFile("k8s-service.yaml", string(service))
	if _, err := dir.Export(ctx, outputDir); err != nil {
		return nil, fmt.Errorf("export manifests: %w", err)
	}

	return &models.ManifestResult{
		ComposeCreated:    true,
		KubernetesCreated: true,
		ManifestCount:     3,
		Registry:          registry,
	}, nil
}
