package collide

import (
	"testing"

	"cogentcore.org/core/math32"

	"rigid3d/internal/shape"
)

func poseAt(x, y, z float32) shape.Pose {
	p := shape.Identity()
	p.Pos = math32.Vec3(x, y, z)
	return p
}

func TestSphereSphereOverlap(t *testing.T) {
	a, _ := shape.NewSphere(1, 1)
	b, _ := shape.NewSphere(1, 1)

	m, ok := Shapes(a, poseAt(0, 0, 0), b, poseAt(1.5, 0, 0))
	if !ok {
		t.Fatal("overlapping spheres must collide")
	}
	if math32.Abs(m.Depth-0.5) > 1e-4 {
		t.Errorf("depth = %v, want 0.5", m.Depth)
	}
	if m.Normal.DistanceTo(math32.Vec3(1, 0, 0)) > 1e-4 {
		t.Errorf("normal = %v, want +x", m.Normal)
	}
	if len(m.Points) == 0 {
		t.Error("manifold must carry at least one point")
	}
}

func TestSphereSphereSeparated(t *testing.T) {
	a, _ := shape.NewSphere(1, 1)
	b, _ := shape.NewSphere(1, 1)
	if _, ok := Shapes(a, poseAt(0, 0, 0), b, poseAt(3, 0, 0)); ok {
		t.Error("separated spheres must not collide")
	}
}

func TestBoxBoxOverlap(t *testing.T) {
	a, _ := shape.NewBox(math32.Vec3(1, 1, 1), 1)
	b, _ := shape.NewBox(math32.Vec3(1, 1, 1), 1)

	m, ok := Shapes(a, poseAt(0, 0, 0), b, poseAt(0.8, 0, 0))
	if !ok {
		t.Fatal("overlapping boxes must collide")
	}
	if math32.Abs(m.Normal.X) < 0.95 {
		t.Errorf("separation axis should be x, got %v", m.Normal)
	}
	if m.Normal.X < 0 {
		t.Errorf("normal should point from a toward b, got %v", m.Normal)
	}
	if m.Depth < 0.1 || m.Depth > 0.3 {
		t.Errorf("depth = %v, want about 0.2", m.Depth)
	}
}

func TestBoxBoxSeparated(t *testing.T) {
	a, _ := shape.NewBox(math32.Vec3(1, 1, 1), 1)
	b, _ := shape.NewBox(math32.Vec3(1, 1, 1), 1)
	if _, ok := Shapes(a, poseAt(0, 0, 0), b, poseAt(2, 0, 0)); ok {
		t.Error("separated boxes must not collide")
	}
}

func TestSphereBox(t *testing.T) {
	s, _ := shape.NewSphere(0.5, 1)
	b, _ := shape.NewBox(math32.Vec3(2, 2, 2), 1)

	// sphere resting into the top face of the box
	m, ok := Shapes(s, poseAt(0, 1.3, 0), b, poseAt(0, 0, 0))
	if !ok {
		t.Fatal("sphere pressed into box must collide")
	}
	if m.Normal.Y > -0.9 {
		t.Errorf("normal should point down toward the box, got %v", m.Normal)
	}
	if math32.Abs(m.Depth-0.2) > 0.05 {
		t.Errorf("depth = %v, want about 0.2", m.Depth)
	}
}

func TestBoxSphereFlipped(t *testing.T) {
	s, _ := shape.NewSphere(0.5, 1)
	b, _ := shape.NewBox(math32.Vec3(2, 2, 2), 1)

	// same pair with the box in the A slot
	m, ok := Shapes(b, poseAt(0, 0, 0), s, poseAt(0, 1.3, 0))
	if !ok {
		t.Fatal("box under a pressed sphere must collide")
	}
	if m.Normal.Y < 0.9 {
		t.Errorf("normal should point up toward the sphere, got %v", m.Normal)
	}
	if math32.Abs(m.Depth-0.2) > 1e-4 {
		t.Errorf("depth = %v, want 0.2", m.Depth)
	}
}

func TestSphereCenterInsideBox(t *testing.T) {
	s, _ := shape.NewSphere(0.5, 1)
	b, _ := shape.NewBox(math32.Vec3(2, 2, 2), 1)

	// center past the surface: nearest face is +y, 0.4 away
	m, ok := Shapes(s, poseAt(0, 0.6, 0), b, poseAt(0, 0, 0))
	if !ok {
		t.Fatal("embedded sphere must collide")
	}
	if m.Normal.Y > -0.9 {
		t.Errorf("normal should push the box down and the sphere out the top, got %v", m.Normal)
	}
	if math32.Abs(m.Depth-0.9) > 1e-4 {
		t.Errorf("depth = %v, want 0.9", m.Depth)
	}
}

func TestBoxOnMeshPlane(t *testing.T) {
	verts := []math32.Vector3{
		math32.Vec3(-5, 0, -5), math32.Vec3(5, 0, -5),
		math32.Vec3(5, 0, 5), math32.Vec3(-5, 0, 5),
	}
	// wind so triangle normals point up
	idx := []int{0, 2, 1, 0, 3, 2}
	mesh, err := shape.NewMesh(verts, idx)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	box, _ := shape.NewBox(math32.Vec3(1, 1, 1), 1)

	m, ok := Shapes(box, poseAt(0, 0.4, 0), mesh, poseAt(0, 0, 0))
	if !ok {
		t.Fatal("box sunk into the plane must collide")
	}
	if m.Normal.Y > -0.9 {
		t.Errorf("normal should point from box toward mesh (down), got %v", m.Normal)
	}
	if math32.Abs(m.Depth-0.1) > 0.05 {
		t.Errorf("depth = %v, want about 0.1", m.Depth)
	}

	// swapped order flips the normal
	m2, ok := Shapes(mesh, poseAt(0, 0, 0), box, poseAt(0, 0.4, 0))
	if !ok {
		t.Fatal("swapped order must still collide")
	}
	if m2.Normal.Y < 0.9 {
		t.Errorf("swapped normal should point up, got %v", m2.Normal)
	}
}

func TestBoxAboveMeshPlane(t *testing.T) {
	verts := []math32.Vector3{
		math32.Vec3(-5, 0, -5), math32.Vec3(5, 0, -5),
		math32.Vec3(5, 0, 5), math32.Vec3(-5, 0, 5),
	}
	mesh, _ := shape.NewMesh(verts, []int{0, 2, 1, 0, 3, 2})
	box, _ := shape.NewBox(math32.Vec3(1, 1, 1), 1)
	if _, ok := Shapes(box, poseAt(0, 2, 0), mesh, poseAt(0, 0, 0)); ok {
		t.Error("box above the plane must not collide")
	}
}

func TestMeshMeshNever(t *testing.T) {
	verts := []math32.Vector3{
		math32.Vec3(-1, 0, -1), math32.Vec3(1, 0, -1), math32.Vec3(0, 0, 1),
	}
	a, _ := shape.NewMesh(verts, []int{0, 2, 1})
	b, _ := shape.NewMesh(verts, []int{0, 2, 1})
	if _, ok := Shapes(a, poseAt(0, 0, 0), b, poseAt(0, 0, 0)); ok {
		t.Error("two concave shapes never produce a manifold")
	}
}

func TestCapsuleBoxOverlap(t *testing.T) {
	c, _ := shape.NewCapsule(0.5, 1, 1)
	b, _ := shape.NewBox(math32.Vec3(4, 1, 4), 1)

	// capsule standing on the box with slight overlap
	m, ok := Shapes(c, poseAt(0, 1.4, 0), b, poseAt(0, 0, 0))
	if !ok {
		t.Fatal("capsule pressed into box must collide")
	}
	if m.Normal.Y > -0.8 {
		t.Errorf("normal should be mostly downward, got %v", m.Normal)
	}
}

func TestManifoldPointsOnFaceContact(t *testing.T) {
	a, _ := shape.NewBox(math32.Vec3(1, 1, 1), 1)
	b, _ := shape.NewBox(math32.Vec3(4, 1, 4), 1)

	// box resting face-to-face on a bigger box
	m, ok := Shapes(a, poseAt(0, 0.9, 0), b, poseAt(0, 0, 0))
	if !ok {
		t.Fatal("stacked boxes must collide")
	}
	if len(m.Points) < 3 {
		t.Errorf("face contact should produce several points, got %d", len(m.Points))
	}
	for _, p := range m.Points {
		if math32.Abs(p.Y-0.45) > 0.2 {
			t.Errorf("contact point %v not near the shared face", p)
		}
	}
}
