package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"ratlogger/internal/domain"
	"ratlogger/internal/services"

	"github.com/spf13/cobra"
)

func (c *cli) reportCommand() *cobra.Command {
	var (
		lon, lat    float64
		device      bool
		description string
		photoPath   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a sighting at a point or at the device location",
		Long: `Report a sighting. Pass --lon and --lat to drop the pin at a chosen
point, or --device to use the device location. A photo carrying GPS EXIF
data is used as the device location when available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clicked := cmd.Flags().Changed("lon") || cmd.Flags().Changed("lat")
			if clicked == device {
				return errors.New("pass either --lon/--lat or --device")
			}
			if err := c.requireSession(cmd); err != nil {
				return err
			}

			// The map is never opened here, so the reload after submit is
			// skipped; the dashboard cache is still invalidated.
			stack, err := c.app.newMapStack(photoPath)
			if err != nil {
				return err
			}
			defer stack.screen.Close()
			p := stack.screen.PinDrop()

			choice := services.UseDeviceLocation
			if clicked {
				p.HandleClick(domain.Coordinates{Lon: lon, Lat: lat})
				choice = services.UseClickedLocation
			} else if err := p.Begin(); err != nil {
				return err
			}

			if err := p.SetDescription(description); err != nil {
				return err
			}
			if photoPath != "" {
				data, err := os.ReadFile(photoPath)
				if err != nil {
					return fmt.Errorf("read photo: %w", err)
				}
				photo := domain.Photo{
					Filename:    filepath.Base(photoPath),
					ContentType: http.DetectContentType(data),
					Data:        data,
				}
				if err := p.AttachPhoto(photo); err != nil {
					return err
				}
			}

			created, err := p.Choose(ctx, choice)
			if err != nil {
				if msg := p.Status().Error; msg != "" {
					return fmt.Errorf("%s (%w)", msg, err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reported sighting %s at %s\n", created.ID, created.Coordinates)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the sighting")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the sighting")
	cmd.Flags().BoolVar(&device, "device", false, "Use the device location")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	cmd.Flags().StringVar(&photoPath, "photo", "", "Optional photo to attach")
	cmd.MarkFlagsRequiredTogether("lon", "lat")

	return cmd
}
