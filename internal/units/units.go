// Package units provides shared axis-label and unit strings for radiometric
// quantities so plots and web charts agree on wording.
package units

import "fmt"

// Base unit strings.
const (
	Watt       = "W"
	PhotonRate = "photon/s"
)

// RadianceLabel is the y-axis label for wavelength-integrated radiance.
const RadianceLabel = "Radiance (W/m^2/str)"

// PowerLabel is the y-axis label for wavelength-integrated power.
const PowerLabel = "Power (W)"

// WavelengthLabel is the x-axis label for spectral plots.
const WavelengthLabel = "Wavelength (nm)"

// SpectralRadianceLabel returns the y-axis label for spectral radiance in
// energy or photon units.
func SpectralRadianceLabel(inPhotons bool) string {
	unit := Watt
	if inPhotons {
		unit = PhotonRate
	}
	return fmt.Sprintf("Spectral radiance (%s/m^2/str/nm)", unit)
}

// SpectralPowerLabel returns the y-axis label for spectral power in energy or
// photon units.
func SpectralPowerLabel(inPhotons bool) string {
	unit := Watt
	if inPhotons {
		unit = PhotonRate
	}
	return fmt.Sprintf("Spectral power (%s/nm)", unit)
}
