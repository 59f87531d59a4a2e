package planetary

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/julian"
)

const (
	// J2000JD is the Julian Day of the J2000.0 epoch (2000-01-01T12:00:00Z).
	J2000JD = 2451545.0
	// J2000Obliquity is the mean obliquity of the ecliptic at J2000, degrees.
	J2000Obliquity = 23.43929111

	// IAU 1958 galactic frame, J2000 equatorial coordinates.
	galPoleRA   = 192.859508 // right ascension of the north galactic pole, degrees
	galPoleDec  = 27.128336  // declination of the north galactic pole, degrees
	galNodeLong = 122.932    // galactic longitude of the north celestial pole, degrees
)

// J2000 returns the J2000.0 reference epoch.
func J2000() time.Time {
	return time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
}

// FrameConfig carries the reference-frame constants used by the coordinate
// transforms. Obliquity and epoch are configuration, not hardcoded values.
type FrameConfig struct {
	ObliquityDeg float64   // mean obliquity of the ecliptic, degrees
	AUMeters     float64   // length of one astronomical unit, meters
	Epoch        time.Time // reference epoch of the frame
}

// DefaultFrameConfig returns the J2000 frame.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{ObliquityDeg: J2000Obliquity, AUMeters: 1.495978707e11, Epoch: J2000()}
}

func (f FrameConfig) obliquity() float64 {
	return f.ObliquityDeg * deg2rad
}

// AU2Meters converts a distance in astronomical units to meters.
func (f FrameConfig) AU2Meters(au float64) float64 {
	return au * f.AUMeters
}

// Meters2AU converts a distance in meters to astronomical units.
func (f FrameConfig) Meters2AU(m float64) float64 {
	return m / f.AUMeters
}

// EquatorialToEcliptic rotates an equatorial vector into the ecliptic frame.
func (f FrameConfig) EquatorialToEcliptic(v []float64) []float64 {
	return MxV33(R1(f.obliquity()), v)
}

// EclipticToEquatorial rotates an ecliptic vector into the equatorial frame.
func (f FrameConfig) EclipticToEquatorial(v []float64) []float64 {
	return MxV33(R1(-f.obliquity()), v)
}

// JulianDay returns the fractional Julian Day of the given time.
func JulianDay(dt time.Time) float64 {
	return julian.TimeToJD(dt.UTC())
}

// JulianCenturies returns the number of Julian centuries elapsed since J2000.0.
func JulianCenturies(dt time.Time) float64 {
	return (JulianDay(dt) - J2000JD) / 36525
}

// GMST returns the Greenwich mean sidereal time in radians, in [0, 2π).
func GMST(dt time.Time) float64 {
	jd := JulianDay(dt)
	T := (jd - J2000JD) / 36525
	// IAU 1982 polynomial, degrees.
	θ := 280.46061837 + 360.98564736629*(jd-J2000JD) + 0.000387933*T*T - T*T*T/38710000
	θ = math.Mod(θ, 360)
	if θ < 0 {
		θ += 360
	}
	return θ * deg2rad
}

// LocalSiderealTime returns the local sidereal time in radians for the given
// time and east longitude (radians), in [0, 2π).
func LocalSiderealTime(dt time.Time, longitude float64) float64 {
	lst := math.Mod(GMST(dt)+longitude, 2*math.Pi)
	if lst < 0 {
		lst += 2 * math.Pi
	}
	return lst
}

// raDecToUnit converts right ascension and declination (radians) to a unit
// direction vector.
func raDecToUnit(ra, dec float64) []float64 {
	sδ, cδ := math.Sincos(dec)
	sα, cα := math.Sincos(ra)
	return []float64{cδ * cα, cδ * sα, sδ}
}

// unitToRaDec converts a direction vector to right-ascension-like and
// declination-like spherical angles (radians), the former wrapped to [0, 2π).
func unitToRaDec(v []float64) (ra, dec float64) {
	ra = math.Atan2(v[1], v[0])
	if ra < 0 {
		ra += 2 * math.Pi
	}
	dec = math.Asin(v[2] / norm(v))
	return
}

// galacticRotation is the 3-1-3 rotation taking J2000 equatorial directions
// into the galactic frame.
func galacticRotation() (θ1, θ2, θ3 float64) {
	return (galPoleRA + 90) * deg2rad, (90 - galPoleDec) * deg2rad, (90 - galNodeLong) * deg2rad
}

// EquatorialToGalactic converts J2000 right ascension and declination
// (radians) to galactic longitude and latitude (radians).
func EquatorialToGalactic(ra, dec float64) (l, b float64) {
	θ1, θ2, θ3 := galacticRotation()
	return unitToRaDec(Rot313Vec(θ1, θ2, θ3, raDecToUnit(ra, dec)))
}

// GalacticToEquatorial converts galactic longitude and latitude (radians) to
// J2000 right ascension and declination (radians).
func GalacticToEquatorial(l, b float64) (ra, dec float64) {
	θ1, θ2, θ3 := galacticRotation()
	return unitToRaDec(Rot313Vec(-θ3, -θ2, -θ1, raDecToUnit(l, b)))
}

// EquatorialToHorizontal converts right ascension and declination (radians) to
// azimuth and altitude (radians) for the given local sidereal time and
// observer latitude. Azimuth is measured from North through East.
func EquatorialToHorizontal(ra, dec, lst, latitude float64) (az, alt float64) {
	ha := lst - ra
	sδ, cδ := math.Sincos(dec)
	sφ, cφ := math.Sincos(latitude)
	sinAlt := sδ*sφ + cδ*cφ*math.Cos(ha)
	alt = math.Asin(sinAlt)
	cosAz := (sδ - sinAlt*sφ) / (math.Cos(alt) * cφ)
	// Clamp rounding noise before the acos.
	if cosAz > 1 {
		cosAz = 1
	} else if cosAz < -1 {
		cosAz = -1
	}
	az = math.Acos(cosAz)
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}
	return
}

// HMS2Hours converts an hour-minute-second reading to fractional hours.
// Minutes and seconds must be within (-60, 60); a negative reading carries
// its sign on the leading nonzero component, so 0h -30m 0s is -0.5 h.
func HMS2Hours(h int, m int, s float64) (float64, error) {
	if m <= -60 || m >= 60 {
		return 0, fmt.Errorf("minutes out of range: %d", m)
	}
	if s <= -60 || s >= 60 {
		return 0, fmt.Errorf("seconds out of range: %f", s)
	}
	if m < 0 && h != 0 {
		return 0, fmt.Errorf("negative minutes need a zero hour: %dh %dm", h, m)
	}
	if s < 0 && (h != 0 || m != 0) {
		return 0, fmt.Errorf("negative seconds need zero hours and minutes: %dh %dm %fs", h, m, s)
	}
	frac := math.Abs(float64(m))/60 + math.Abs(s)/3600
	if h < 0 || m < 0 || s < 0 {
		return float64(h) - frac, nil
	}
	return float64(h) + frac, nil
}

// Hours2HMS converts fractional hours to an hour-minute-second reading. The
// sign rides on the leading nonzero component (an integer hour of zero
// cannot carry it), so -0.5 h reads as 0h -30m 0s. The round trip with
// HMS2Hours is exact for well-formed inputs.
func Hours2HMS(hours float64) (h int, m int, s float64) {
	neg := hours < 0
	hours = math.Abs(hours)
	h = int(hours)
	rem := (hours - float64(h)) * 60
	m = int(rem)
	s = (rem - float64(m)) * 60
	// Carry rounding noise at the 60s boundary.
	if s >= 60 {
		s -= 60
		m++
	}
	if m >= 60 {
		m -= 60
		h++
	}
	if neg {
		switch {
		case h != 0:
			h = -h
		case m != 0:
			m = -m
		default:
			s = -s
		}
	}
	return
}
