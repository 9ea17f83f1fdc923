package entity

import (
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
	"github.com/eclipse-opendut/opendut-carl/pkg/types"
)

// ClusterDescriptor is the operator-authored definition of a cluster: its
// name, the peer designated leader, and the set of devices it should bring
// together. It exists independently of whether the cluster is deployed.
type ClusterDescriptor struct {
	ID      types.ClusterID
	Name    string
	Leader  types.PeerID
	Devices map[types.DeviceID]struct{}
}

func (ClusterDescriptor) TypeName() string             { return "cluster_descriptor" }
func (ClusterDescriptor) Class() resource.StorageClass { return resource.Persistent }

// ClusterDeployment marks a cluster as deployed and records the peer set
// that was resolved from its descriptor's device selection at deployment
// time. Members is kept even if the descriptor is later edited, so undeploy
// can unassign configuration from exactly the peers it assigned it to. The
// descriptor itself cannot be removed while this record exists.
type ClusterDeployment struct {
	ID      types.ClusterID
	Members []types.PeerID
}

func (ClusterDeployment) TypeName() string             { return "cluster_deployment" }
func (ClusterDeployment) Class() resource.StorageClass { return resource.Persistent }
