// Package pkg provides the libraries behind schemconv, a converter between
// Litematica (.litematic) and Sponge (.schem) block schematics.
//
// # Overview
//
// Both formats are gzip-compressed NBT trees describing blocks, block
// entities and entities in 3D regions. schemconv decodes either format into
// one canonical model, encodes that model into either format, and renders
// text views of it.
//
// # Architecture
//
// The data flow through a conversion:
//
//	.litematic / .schem bytes
//	         ↓
//	    [formats] (gzip container, format detection)
//	         ↓
//	    [nbt] (tag tree)
//	         ↓
//	    [formats/litematic], [formats/schem] (codecs)
//	         ↓
//	    [schematic] (canonical model)
//	         ↓
//	    codec → nbt → gzip → bytes, or [render] → text
//
// [engine] wraps this flow in a stateful handle with Empty and Loaded
// states. [pipeline] adds caching on top for the CLI and the HTTP service,
// and [session] keeps engines alive between HTTP requests.
//
// # Quick Start
//
//	e := engine.New()
//	if err := e.LoadLitematic(data); err != nil {
//	    return err
//	}
//	out, err := e.ToSchematic()
//	if err != nil {
//	    return err
//	}
//	text, _ := e.RenderText()
//
// # Main Packages
//
// [nbt] - Named Binary Tag reader and writer with ordered compounds.
//
// [schematic] - Block states, bounding boxes, regions and the schematic model.
//
// [formats] - Format enumeration, content sniffing and the gzip container.
//
// [engine] - Load, save, render_text and debug on one model.
//
// [render] - Summary, debug, JSON, YAML and layer views.
//
// [cache] - File, redis, mongo and null caches plus a zstd wrapper.
//
// [pipeline] - Cached conversion shared by the CLI and the server.
//
// [session] - Engine handles kept between HTTP requests.
//
// [httputil] - Downloads for URL inputs, with retry.
//
// [errors] - Error codes shared by every layer.
//
// [observability] - Hooks for metrics and tracing.
package pkg
