// Package secret resolves secrets referenced from navkitd configuration.
//
// Values are first expanded with ExpandEnvStrict, so "${JWT_SECRET}" fails
// loudly when the variable is unset. A value of the form
// "secretref:<provider>:<ref>" is then handed to the named Provider:
//
//	jwt-secret: secretref:file:/run/secrets/navkit-jwt
//	api-keys:   ops=secretref:env:NAVKIT_OPS_KEY
//
// References may also appear inline, e.g. "redis://:secretref:env:REDIS_PW@cache:6379".
package secret
