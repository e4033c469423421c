package ui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// AppIcon is looked up next to the executable's working directory
const AppIcon = "web-browser.png"

// LoadAppIcon returns the application icon, falling back to a theme icon
// when the image file is not shipped alongside the binary
func LoadAppIcon() fyne.Resource {
	res, err := fyne.LoadResourceFromPath(AppIcon)
	if err != nil {
		log.Printf("App icon %s not found, using default: %v", AppIcon, err)
		return theme.ComputerIcon()
	}
	return res
}
