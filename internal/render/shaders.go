package render

import (
	"log"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ShaderManager owns the single shader program used for the overlay and its
// uniforms.
type ShaderManager struct {
	program    uint32
	uTransform int32 // document -> NDC
	uOpacity   int32 // multiplies vertex alpha
}

// Vertex shader. Positions arrive in document space; the uniform matrix
// takes them to NDC.
const vertexShaderSource = `
#version 330 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec4 aColor;

uniform mat4 uTransform;

out vec4 vColor;

void main() {
    gl_Position = uTransform * vec4(aPos, 0.0, 1.0);
    vColor = aColor;
}
` + "\x00"

// Fragment shader. Cones are translucent, so alpha matters here.
const fragmentShaderSource = `
#version 330 core
in vec4 vColor;
out vec4 FragColor;

uniform float uOpacity;

void main() {
    FragColor = vec4(vColor.rgb, vColor.a * uOpacity);
}
` + "\x00"

// NewShaderManager compiles and links the overlay program and enables
// alpha blending. It must be called with a current GL context.
func NewShaderManager() *ShaderManager {
	sm := &ShaderManager{}

	vertexShader := sm.compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	defer gl.DeleteShader(vertexShader)
	fragmentShader := sm.compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	defer gl.DeleteShader(fragmentShader)

	sm.program = gl.CreateProgram()
	gl.AttachShader(sm.program, vertexShader)
	gl.AttachShader(sm.program, fragmentShader)
	gl.LinkProgram(sm.program)

	var status int32
	gl.GetProgramiv(sm.program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(sm.program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(sm.program, logLength, nil, gl.Str(logText))
		log.Fatalf("Shader linking failed: %s", logText)
	}

	sm.uTransform = gl.GetUniformLocation(sm.program, gl.Str("uTransform\x00"))
	sm.uOpacity = gl.GetUniformLocation(sm.program, gl.Str("uOpacity\x00"))
	gl.UseProgram(sm.program)
	gl.Uniform1f(sm.uOpacity, 1)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return sm
}

// SetTransform sets the uniform transformation matrix.
func (sm *ShaderManager) SetTransform(matrix [16]float32) {
	gl.UniformMatrix4fv(sm.uTransform, 1, false, &matrix[0])
}

// SetOpacity sets the alpha multiplier for subsequent draws.
func (sm *ShaderManager) SetOpacity(opacity float64) {
	gl.Uniform1f(sm.uOpacity, float32(opacity))
}

func (sm *ShaderManager) compileShader(source string, shaderType uint32) uint32 {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		log.Fatalf("Shader compilation failed: %s", logText)
	}
	return shader
}
