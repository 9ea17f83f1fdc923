package entity

import "github.com/eclipse-opendut/opendut-carl/pkg/types"

// ExecutorKind is the two shapes a peer can run a task as.
type ExecutorKind int

const (
	ExecutorExecutable ExecutorKind = iota
	ExecutorContainer
)

// ContainerExecutor is the configuration for an ExecutorContainer, mirroring
// the subset of a docker run invocation EDGAR needs to reproduce it.
type ContainerExecutor struct {
	Image   string
	Name    string
	Volumes []string
	Devices []string
	Envs    map[string]string
	Ports   []string
	Command string
	Args    []string
}

// Executor is one runnable unit assigned to a peer, either a bare executable
// or a container. Container is set only when Kind == ExecutorContainer.
type Executor struct {
	ID         types.ExecutorID
	Kind       ExecutorKind
	Container  *ContainerExecutor
	ResultsURL string
}
