// example.go - Sample request for gocover init.
package cover

// ExampleRequestTOML returns a sample request file covering every option.
func ExampleRequestTOML() string {
	return `# GoCover render request.
# Every key is optional; omitted keys use the editor defaults.

mode = "fill" # fill, fit or tile

[background]
type = "gradient" # solid, gradient or blur
color1 = "#f5f0e6"
color2 = "#1f2a44"
angle = 135.0
# type = "solid"
# color = "#ffffff"
# type = "blur"
# radius = 20.0
# scale = 1.5

[transform] # fill and fit placement
scale = 1.0
rotation = 0.0
offset = { x = 0.0, y = 0.0 }

[tile] # tile mode placement
scale = 0.5
offset = { x = 0.0, y = 0.0 }

[text]
enabled = true
content = "Weekly Notes"
font = "Inter"
weight = 600
size = 64.0
tracking = 2.0
shadow = true
align = "center" # left, center or right
color = "#ffffff"

[output]
width = 1500
height = 600
format = "png" # png or jpeg
quality = 0.9  # jpeg only
`
}
