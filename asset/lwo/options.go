package lwo

// Options control which chunks are emitted and how geometry is converted.
type Options struct {
	// Restrict output to the chunk subset consumed by idTech engines.
	IdTechCompatible bool `toml:"idtech_compatible"`

	// Export polygons as subdivision patches.
	Subpatch bool `toml:"subpatch"`

	// Uniform scale applied to points, normals and bounding boxes.
	Scale float32 `toml:"export_scale"`

	// Export surfaces as smoothed.
	Smoothed bool `toml:"smoothed"`

	// Write a separate file for each exported object.
	Batch bool `toml:"batch"`
}

// Get the default export options.
func DefaultOptions() Options {
	return Options{
		IdTechCompatible: true,
		Scale:            1.0,
	}
}

// Validate the option values.
func (o Options) Validate() error {
	if o.Scale < 0.01 || o.Scale > 1000 {
		return ErrInvalidScale
	}
	return nil
}
