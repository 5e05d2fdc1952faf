package models

import "time"

// Directive keys accepted on the command line and in config files.
const (
	KeyLogin              = "-l"
	KeyPassword           = "-p"
	KeyRepository         = "-r"
	KeyOwner              = "-o"
	KeyBranch             = "-b"
	KeyLogs               = "--logs"
	KeyRuntime            = "--runtime"
	KeyBuildConfiguration = "--build-configuration"
	KeyUpdate             = "--update"
	KeySecrets            = "--secrets"
	KeySecretsIdentity    = "--secrets-identity"
	KeyDestination        = "--destination"
	KeyOff                = "--off"
	KeyConfig             = "--config"
	KeyCommand            = "--command"
	KeyWorkDir            = "--workdir"
	KeyTimeout            = "--timeout"
	KeyHistory            = "--history"
	KeyHost               = "--host"
)

const (
	RuntimeDotnetCore = "dotnet-core"
	UpdateDatabase    = "database"
	DefaultHost       = "github.com"
	DefaultWorkDir    = "/tmp/codli-gci"
)

// DirectiveSet is the raw key/value bag folded from argument pairs.
type DirectiveSet map[string]string

// Directives is the typed view of a DirectiveSet. Empty strings mean the
// directive was absent.
type Directives struct {
	Login              string        `yaml:"login,omitempty" json:"login,omitempty"`
	Password           string        `yaml:"-" json:"-"`
	Repository         string        `yaml:"repository" json:"repository"`
	Owner              string        `yaml:"owner" json:"owner"`
	Branch             string        `yaml:"branch,omitempty" json:"branch,omitempty"`
	Host               string        `yaml:"host" json:"host"`
	Logs               string        `yaml:"logs,omitempty" json:"logs,omitempty"`
	Runtime            string        `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	BuildConfiguration string        `yaml:"buildConfiguration,omitempty" json:"buildConfiguration,omitempty"`
	Update             string        `yaml:"update,omitempty" json:"update,omitempty"`
	Secrets            string        `yaml:"secrets,omitempty" json:"secrets,omitempty"`
	SecretsIdentity    string        `yaml:"secretsIdentity,omitempty" json:"secretsIdentity,omitempty"`
	Destination        string        `yaml:"destination,omitempty" json:"destination,omitempty"`
	Off                string        `yaml:"off,omitempty" json:"off,omitempty"`
	Config             string        `yaml:"config,omitempty" json:"config,omitempty"`
	Command            string        `yaml:"command,omitempty" json:"command,omitempty"`
	WorkDir            string        `yaml:"workDir" json:"workDir"`
	Timeout            time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	History            string        `yaml:"history,omitempty" json:"history,omitempty"`

	// Unknown holds keys no stage consumes.
	Unknown []string `yaml:"unknown,omitempty" json:"unknown,omitempty"`
}

// RepositoryPath is the owner/repo pair used to label runs.
func (d Directives) RepositoryPath() string {
	return d.Owner + "/" + d.Repository
}

func (d Directives) HasCredentials() bool {
	return d.Login != ""
}
