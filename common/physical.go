package common

// Speeds are in meters per second.
const SpeedOfWalkingMean = 1.2       // or 4.3 km/h or 2.7 mph
const SpeedOfSound = 343.0

// Elevations are in meters above sea level.
const ElevationCommercialFlightCruising = 10668.0
const ElevationOfDeadSea = -430.0
