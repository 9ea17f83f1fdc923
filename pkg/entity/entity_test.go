package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eclipse-opendut/opendut-carl/pkg/entity"
	"github.com/eclipse-opendut/opendut-carl/pkg/resource"
)

func TestStorageClassAssignment(t *testing.T) {
	assert.Equal(t, resource.Persistent, entity.PeerDescriptor{}.Class())
	assert.Equal(t, resource.Persistent, entity.ClusterDescriptor{}.Class())
	assert.Equal(t, resource.Persistent, entity.ClusterDeployment{}.Class())
	assert.Equal(t, resource.Volatile, entity.PeerConnectionState{}.Class())
	assert.Equal(t, resource.Volatile, entity.PeerConfiguration{}.Class())
	assert.Equal(t, resource.Volatile, entity.OldPeerConfiguration{}.Class())
}

func TestTypeNamesAreDistinct(t *testing.T) {
	names := []string{
		entity.PeerDescriptor{}.TypeName(),
		entity.ClusterDescriptor{}.TypeName(),
		entity.ClusterDeployment{}.TypeName(),
		entity.PeerConnectionState{}.TypeName(),
		entity.PeerConfiguration{}.TypeName(),
		entity.OldPeerConfiguration{}.TypeName(),
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		assert.False(t, seen[n], "duplicate table name %q", n)
		seen[n] = true
	}
}
