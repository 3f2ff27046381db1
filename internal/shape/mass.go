package shape

import "cogentcore.org/core/math32"

// CombineMassData sums per-shape mass properties into a single body-frame
// result: total mass, volume-weighted center of mass, and the combined
// inertia tensor with each contribution rotated into the common frame and
// shifted to the shared center by the parallel-axis theorem.
func CombineMassData(mds []MassData) MassData {
	var total float32
	var center math32.Vector3
	for _, md := range mds {
		total += md.Mass
		center = center.Add(md.Center.MulScalar(md.Mass))
	}
	if total <= 0 {
		return MassData{InertiaRot: identityQuat()}
	}
	center = center.DivScalar(total)

	// accumulate the full symmetric tensor about the combined center
	var xx, yy, zz, xy, yz, xz float32
	for _, md := range mds {
		// rotate the diagonal inertia into the common frame
		r := quatColumns(md.InertiaRot)
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				var v float32
				for k := 0; k < 3; k++ {
					v += r[i][k] * axisValue(md.Inertia, k) * r[j][k]
				}
				switch {
				case i == 0 && j == 0:
					xx += v
				case i == 1 && j == 1:
					yy += v
				case i == 2 && j == 2:
					zz += v
				case i == 0 && j == 1:
					xy += v
				case i == 1 && j == 2:
					yz += v
				default:
					xz += v
				}
			}
		}

		// parallel-axis shift from the shape center to the combined center
		d := md.Center.Sub(center)
		d2 := d.LengthSquared()
		xx += md.Mass * (d2 - d.X*d.X)
		yy += md.Mass * (d2 - d.Y*d.Y)
		zz += md.Mass * (d2 - d.Z*d.Z)
		xy -= md.Mass * d.X * d.Y
		yz -= md.Mass * d.Y * d.Z
		xz -= md.Mass * d.X * d.Z
	}

	diag, rot := DiagonalizeInertia(xx, yy, zz, xy, yz, xz)
	return MassData{Mass: total, Center: center, Inertia: diag, InertiaRot: rot}
}

// quatColumns expands a quaternion into rotation matrix rows.
func quatColumns(q math32.Quat) [3][3]float32 {
	x := math32.Vec3(1, 0, 0).MulQuat(q)
	y := math32.Vec3(0, 1, 0).MulQuat(q)
	z := math32.Vec3(0, 0, 1).MulQuat(q)
	// columns of R are the rotated basis vectors
	return [3][3]float32{
		{x.X, y.X, z.X},
		{x.Y, y.Y, z.Y},
		{x.Z, y.Z, z.Z},
	}
}

func identityQuat() math32.Quat {
	var q math32.Quat
	q.SetIdentity()
	return q
}
