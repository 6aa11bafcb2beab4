package scene

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/models"
)

func roomModel() *models.Model {
	mesh := models.NewPlane("wall", 1, 1, models.DefaultMaterial())
	return &models.Model{
		Name: "room.gltf",
		Roots: []*models.Node{{
			Name:  "room",
			Local: math3d.Identity(),
			Children: []*models.Node{
				{Name: "wall", Local: math3d.Identity(), Mesh: mesh},
				{Name: "desk", Local: math3d.Identity(), Mesh: mesh},
			},
		}},
		Meshes: []*models.Mesh{mesh},
	}
}

// pollUntil polls the loader until it delivers something or fails the test.
func pollUntil(t *testing.T, l *Loader, s *Scene) (*Node, error) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if l.Pending() == 0 {
			t.Fatal("nothing pending")
		}
		n, err := l.Poll(s)
		if n != nil || err != nil {
			return n, err
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("load never completed")
	return nil, nil
}

func TestLoaderAttachesAndFlagsSubtree(t *testing.T) {
	s := New()
	floor := NewFloor()
	_ = s.Add(floor)
	helperNode := NewNode("helper")
	_ = s.Add(helperNode)

	l := NewLoader(func(context.Context, string) (*models.Model, error) {
		return roomModel(), nil
	})
	l.Load(context.Background(), "models/Room/room.gltf")

	root, err := pollUntil(t, l, s)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if root.Parent() != s.Root {
		t.Error("loaded subtree should hang off the scene root")
	}
	for _, name := range []string{"wall", "desk"} {
		n := s.Find(name)
		if n == nil || !n.CastShadow || !n.ReceiveShadow {
			t.Errorf("%s should cast and receive shadows", name)
		}
	}
	if g := s.Find("room"); g.CastShadow {
		t.Error("group without a mesh should not be flagged")
	}
	if floor.CastShadow {
		t.Error("floor must not be touched by the shadow pass")
	}
	if l.Pending() != 0 {
		t.Errorf("Pending() = %d after delivery", l.Pending())
	}
}

func TestLoaderFailureKeepsScene(t *testing.T) {
	boom := errors.New("no such file")
	broken := roomModel()
	broken.Roots[0].Children = append(broken.Roots[0].Children, nil)

	tests := []struct {
		name  string
		model *models.Model
		err   error
		want  error
	}{
		{"read error", nil, boom, boom},
		{"broken hierarchy", broken, nil, ErrNilNode},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			_ = s.Add(NewFloor())

			l := NewLoader(func(context.Context, string) (*models.Model, error) {
				return tc.model, tc.err
			})
			l.Load(context.Background(), "missing.gltf")

			_, err := pollUntil(t, l, s)
			var loadErr *AssetLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *AssetLoadError, got %v", err)
			}
			if loadErr.Path != "missing.gltf" || !errors.Is(err, tc.want) {
				t.Errorf("unexpected error %v", err)
			}
			if len(s.Root.Children()) != 1 || s.Find("floor") == nil {
				t.Error("scene should still hold the floor only")
			}
		})
	}
}

func TestLoaderPollEmpty(t *testing.T) {
	l := NewLoader(nil)
	n, err := l.Poll(New())
	if n != nil || err != nil {
		t.Errorf("empty Poll = %v, %v", n, err)
	}
}

func TestLoaderDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader(func(ctx context.Context, _ string) (*models.Model, error) {
		<-release
		return roomModel(), nil
	})

	done := make(chan struct{})
	go func() {
		l.Load(context.Background(), "slow.gltf")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Load blocked")
	}

	if n, _ := l.Poll(New()); n != nil {
		t.Error("Poll delivered before the load finished")
	}
	close(release)
	if _, err := pollUntil(t, l, New()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
}
